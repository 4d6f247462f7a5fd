package domain

// Page selects which view is rendered for a session.
type Page string

const (
	PageHome     Page = "home"
	PageLogin    Page = "login"
	PageRegister Page = "register"
	PageAboutUs  Page = "about_us"
	PageChat     Page = "chat"
)

// Valid reports whether p is one of the five known pages.
func (p Page) Valid() bool {
	switch p {
	case PageHome, PageLogin, PageRegister, PageAboutUs, PageChat:
		return true
	}
	return false
}

// ParsePage converts a stored value back into a Page, falling back to PageHome.
func ParsePage(s string) Page {
	p := Page(s)
	if !p.Valid() {
		return PageHome
	}
	return p
}
