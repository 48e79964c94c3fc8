package model

// MarketItem is a marketplace-side listing fetched transiently from the
// market gateway. It is never persisted beyond the Order snapshot.
type MarketItem struct {
	ItemID     string `json:"item_id"`
	Collection string `json:"collection"`
	Title      string `json:"title"`
	PriceStars int64  `json:"price_stars"`
	Img        string `json:"img,omitempty"`
}
