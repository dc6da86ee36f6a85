package constants

const USER_AGENT = "pagecache/0.1 (+https://github.com/Amund211/pagecache)"
