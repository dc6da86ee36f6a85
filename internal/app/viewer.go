package app

import (
	"fmt"

	"github.com/Amund211/pagecache/internal/asynccache"
	"github.com/Amund211/pagecache/internal/databind"
	"github.com/Amund211/pagecache/internal/disposable"
	"github.com/Amund211/pagecache/internal/flux"
)

type ViewerProps struct {
	// Highest selectable page
	MaxPages    int
	CurrentPage int
	PageData    asynccache.Entry[string]
}

type ViewerActions struct {
	SetCurrentPage func(page int)
}

type pageKey struct {
	CurrentPage int
}

// DataViewer shows the data of the selected page. Only pages up to the counter value plus one can be selected.
func (a *App) DataViewer(render func(props ViewerProps, actions ViewerActions)) databind.Component[State, ViewerProps, ViewerActions] {
	return databind.Component[State, ViewerProps, ViewerActions]{
		Name: "DataViewer",
		Select: func(state State) ViewerProps {
			maxPages := state.Counter + 1
			currentPage := min(state.Sample.CurrentPage, maxPages)
			return ViewerProps{
				MaxPages:    maxPages,
				CurrentPage: currentPage,
				PageData:    a.Sample.GetPageData(state, currentPage),
			}
		},
		Actions: func(d flux.Dispatcher[State]) ViewerActions {
			return ViewerActions{
				SetCurrentPage: func(page int) {
					d.Run(a.Sample.SetCurrentPage(page))
				},
			}
		},
		Observers: []databind.Observer[State, ViewerProps]{
			{
				Key: func(props ViewerProps) any {
					return pageKey{CurrentPage: props.CurrentPage}
				},
				Observe: func(props ViewerProps, d flux.Dispatcher[State]) disposable.Disposable {
					return a.Sample.ObservePageData(d, props.CurrentPage)
				},
			},
		},
		Render: render,
	}
}

// Describe renders the viewer as a line of text
func Describe(props ViewerProps) string {
	var body string
	props.PageData.Match(
		func() { body = "loading..." },
		func(data string) { body = data },
		func(err error) { body = fmt.Sprintf("error: %s", err) },
	)
	return fmt.Sprintf("[page %d/%d] %s", props.CurrentPage, props.MaxPages, body)
}

type HomeProps struct {
	Counter int
}

type HomeActions struct {
	Increment   func(value int)
	DoubleAsync func()
}

// Home shows the counter
func (a *App) Home(render func(props HomeProps, actions HomeActions)) databind.Component[State, HomeProps, HomeActions] {
	return databind.Component[State, HomeProps, HomeActions]{
		Name: "Home",
		Select: func(state State) HomeProps {
			return HomeProps{Counter: state.Counter}
		},
		Actions: func(d flux.Dispatcher[State]) HomeActions {
			return HomeActions{
				Increment: func(value int) {
					d.Dispatch(Increment(value))
				},
				DoubleAsync: func() {
					d.Dispatch(a.DoubleAsync())
				},
			}
		},
		Render: render,
	}
}
