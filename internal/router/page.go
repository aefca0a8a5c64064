package router

// Page enumerates the fixed set of in-app pages.
type Page int

const (
	PageNone Page = iota
	PageHome
	PageManage
	PageAbout
	PageSettings
)

func (p Page) String() string {
	switch p {
	case PageHome:
		return "home"
	case PageManage:
		return "manage"
	case PageAbout:
		return "about"
	case PageSettings:
		return "settings"
	default:
		return "none"
	}
}

// parsePage maps the first location segment to a page. Anything unrecognized
// falls back to home.
func parsePage(segment string) Page {
	switch segment {
	case "", "home":
		return PageHome
	case "manage":
		return PageManage
	case "about":
		return PageAbout
	case "settings":
		return PageSettings
	default:
		return PageHome
	}
}
