package domain

// ParsedItem is one menu item as discovered during extraction. Everything but
// the name is best-effort.
type ParsedItem struct {
	Name           string
	Description    string
	Price          *float64
	Category       string
	DietaryTags    []string
	Allergens      []string
	ImageFilename  string
	SourceImageURL string
}

// ParsedCategory groups items under the heading they were discovered beneath.
type ParsedCategory struct {
	Name  string
	Items []ParsedItem
}

// ParsedMenu is the transient result of extraction for one job run. Category
// and item order is discovery order and becomes rank/position in the manifest.
type ParsedMenu struct {
	Categories []ParsedCategory
	RawText    string
	SourceURLs []string
}

// ItemCount returns the total number of items across all categories.
func (m *ParsedMenu) ItemCount() int {
	n := 0
	for _, c := range m.Categories {
		n += len(c.Items)
	}
	return n
}

// ImageSource tags where a dish photo came from.
type ImageSource string

const (
	ImageSourceWebsite     ImageSource = "website"
	ImageSourceSearch      ImageSource = "search"
	ImageSourceAIGenerated ImageSource = "ai_generated"
)

// DishImage is one resolved photo for one dish.
type DishImage struct {
	Data   []byte
	Ext    string
	Source ImageSource
	URL    string
}
