package catalog

import "github.com/cardlens/cardlens/internal/models"

// Record flattens a card database object into a CardRecord. Multi-faced
// cards without top-level artwork take their image and rules fields from the
// front face, and a back image is set only when the second face has its own
// artwork.
func (c *Card) Record() models.CardRecord {
	record := models.CardRecord{
		ID:          c.ID,
		Name:        c.Name,
		ImageURL:    c.ImageURIs.Preferred(),
		SetCode:     c.Set,
		SetName:     c.SetName,
		TypeLine:    c.TypeLine,
		OracleText:  c.OracleText,
		ManaCost:    c.ManaCost,
		Rarity:      c.Rarity,
		ScryfallURL: c.ScryfallURI,
	}

	if len(c.CardFaces) == 0 {
		return record
	}

	front := c.CardFaces[0]
	if c.ImageURIs == nil {
		record.ImageURL = front.ImageURIs.Preferred()
		record.TypeLine = front.TypeLine
		record.OracleText = front.OracleText
		record.ManaCost = front.ManaCost
	}
	if record.TypeLine == "" {
		record.TypeLine = front.TypeLine
	}
	if record.OracleText == "" {
		record.OracleText = front.OracleText
	}
	if record.ManaCost == "" {
		record.ManaCost = front.ManaCost
	}

	if len(c.CardFaces) >= 2 && c.CardFaces[0].ImageURIs != nil && c.CardFaces[1].ImageURIs != nil {
		record.BackImageURL = c.CardFaces[1].ImageURIs.Preferred()
	}
	return record
}
