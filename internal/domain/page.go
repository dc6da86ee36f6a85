package domain

import "fmt"

// PageData is the body of a successful page api response
type PageData struct {
	Data string `json:"data"`
}

func MockPageData(page string) PageData {
	return PageData{Data: fmt.Sprintf("This is the data for page %s", page)}
}
