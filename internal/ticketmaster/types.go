package ticketmaster

import "encoding/json"

// PageMeta is the paging metadata the remote API reports on every search
// response. Page numbers are 0-based and totals are cumulative, so display
// metadata always comes from the most recent page.
type PageMeta struct {
	Number        int `json:"number"`
	Size          int `json:"size"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}

// SearchPage is one search response. Only the fields the pagination engine
// needs are parsed; the full body is retained raw for forward compatibility.
type SearchPage struct {
	Embedded struct {
		Events []json.RawMessage `json:"events"`
	} `json:"_embedded"`
	Page PageMeta `json:"page"`

	Raw json.RawMessage `json:"-"`
}

func (p *SearchPage) UnmarshalJSON(data []byte) error {
	type alias SearchPage
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = SearchPage(a)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Events returns the raw event payloads of this page, in response order.
func (p *SearchPage) Events() []json.RawMessage {
	return p.Embedded.Events
}

// Event is one event detail record. As with SearchPage, parsing is limited to
// the fields the application renders; Raw carries everything else.
type Event struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	Images []Image `json:"images"`
	Dates  struct {
		Start struct {
			DateTime string `json:"dateTime"`
		} `json:"start"`
	} `json:"dates"`
	PriceRanges     []PriceRange     `json:"priceRanges"`
	Classifications []Classification `json:"classifications"`
	Embedded        struct {
		Venues []Venue `json:"venues"`
	} `json:"_embedded"`

	Raw json.RawMessage `json:"-"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = Event(a)
	e.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Venue returns the primary venue, or nil when the record carries none.
func (e *Event) Venue() *Venue {
	if len(e.Embedded.Venues) == 0 {
		return nil
	}
	return &e.Embedded.Venues[0]
}

// ImageURL returns the first image URL, or "".
func (e *Event) ImageURL() string {
	if len(e.Images) == 0 {
		return ""
	}
	return e.Images[0].URL
}

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Venue struct {
	Name string `json:"name"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
}

type PriceRange struct {
	Type     string  `json:"type"`
	Currency string  `json:"currency"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

type Classification struct {
	Segment struct {
		Name string `json:"name"`
	} `json:"segment"`
	Genre struct {
		Name string `json:"name"`
	} `json:"genre"`
}
