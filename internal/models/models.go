package models

// CardRecord represents a card resolved from the card database
type CardRecord struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	ImageURL     string `json:"image_url,omitempty"`
	BackImageURL string `json:"back_image_url,omitempty"` // only set for double-faced cards
	SetCode      string `json:"set_code,omitempty"`
	SetName      string `json:"set_name,omitempty"`
	TypeLine     string `json:"type_line,omitempty"`
	OracleText   string `json:"oracle_text,omitempty"`
	ManaCost     string `json:"mana_cost,omitempty"`
	Rarity       string `json:"rarity,omitempty"`
	ScryfallURL  string `json:"scryfall_url,omitempty"`
}

// DoubleFaced reports whether the record carries artwork for both faces
func (c CardRecord) DoubleFaced() bool {
	return c.BackImageURL != ""
}

// LookupResult is the outcome of one identification run. It is one of
// NotFound, Found or Failed.
type LookupResult interface {
	isLookupResult()
}

// NotFound means the card database had no record for the query
type NotFound struct {
	Query string
}

// Found carries the resolved card and, for region lookups, the text the OCR
// service detected.
type Found struct {
	Card         CardRecord
	DetectedName string
}

// Failed carries the failure that ended the run
type Failed struct {
	Failure *Failure
}

func (NotFound) isLookupResult() {}
func (Found) isLookupResult()    {}
func (Failed) isLookupResult()   {}

// ResultJSON is the wire form of a LookupResult
type ResultJSON struct {
	Outcome      string      `json:"outcome"` // "found", "not_found" or "failed"
	Card         *CardRecord `json:"card,omitempty"`
	DetectedName string      `json:"detected_name,omitempty"`
	Query        string      `json:"query,omitempty"`
	Error        *Failure    `json:"error,omitempty"`
}

// ToJSON converts a LookupResult into its wire form. A nil result yields nil.
func ToJSON(result LookupResult) *ResultJSON {
	switch r := result.(type) {
	case Found:
		card := r.Card
		return &ResultJSON{Outcome: "found", Card: &card, DetectedName: r.DetectedName}
	case NotFound:
		return &ResultJSON{Outcome: "not_found", Query: r.Query}
	case Failed:
		return &ResultJSON{Outcome: "failed", Error: r.Failure}
	default:
		return nil
	}
}
