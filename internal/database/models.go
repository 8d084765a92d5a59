package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// Chain represents a retail chain (konzum, lidl, plodine, ...).
// Created on first sighting, never deleted.
type Chain struct {
	ID   int64  `json:"id"`
	Code string `json:"code"` // unique
}

// Store represents a physical store location of a chain.
// Unique on (chain_id, code). A derived geography point is maintained
// when lat/lon are present.
type Store struct {
	ID      int64    `json:"id"`
	ChainID int64    `json:"chain_id"`
	Code    string   `json:"code"`
	Type    *string  `json:"type"`
	Address *string  `json:"address"`
	City    *string  `json:"city"`
	Zipcode *string  `json:"zipcode"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Phone   *string  `json:"phone"`
}

// Product is the global barcode-keyed product row. EAN may be a synthetic
// "chain:code" value for items without an official barcode.
type Product struct {
	ID       int64   `json:"id"`
	EAN      string  `json:"ean"` // unique
	Brand    *string `json:"brand"`
	Name     *string `json:"name"`
	Quantity *string `json:"quantity"`
	Unit     *string `json:"unit"`
}

// ChainProduct is a chain-specific shape of a product (its local
// code/name/brand). Unique on (chain_id, code).
type ChainProduct struct {
	ID          int64   `json:"id"`
	ChainID     int64   `json:"chain_id"`
	ProductID   int64   `json:"product_id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Brand       *string `json:"brand"`
	Category    *string `json:"category"`
	Unit        *string `json:"unit"`
	Quantity    *string `json:"quantity"`
	IsProcessed bool    `json:"is_processed"`
}

// Price is one observed price row. PK (chain_product_id, store_id, price_date).
type Price struct {
	ChainProductID int64            `json:"chain_product_id"`
	StoreID        int64            `json:"store_id"`
	PriceDate      time.Time        `json:"price_date"`
	RegularPrice   *decimal.Decimal `json:"regular_price"`
	SpecialPrice   *decimal.Decimal `json:"special_price"`
	UnitPrice      *decimal.Decimal `json:"unit_price"`
	BestPrice30    *decimal.Decimal `json:"best_price_30"`
	AnchorPrice    *decimal.Decimal `json:"anchor_price"`
}

// ChainPrice is the derived per-(chain_product, date) aggregate.
type ChainPrice struct {
	ChainProductID int64           `json:"chain_product_id"`
	PriceDate      time.Time       `json:"price_date"`
	MinPrice       decimal.Decimal `json:"min_price"`
	MaxPrice       decimal.Decimal `json:"max_price"`
	AvgPrice       decimal.Decimal `json:"avg_price"`
}

// ChainStats is the derived per-(chain, date) counter row.
type ChainStats struct {
	ChainID    int64     `json:"chain_id"`
	PriceDate  time.Time `json:"price_date"`
	PriceCount int64     `json:"price_count"`
	StoreCount int64     `json:"store_count"`
}

// Base unit types for golden products.
const (
	BaseUnitWeight = "WEIGHT"
	BaseUnitVolume = "VOLUME"
	BaseUnitCount  = "COUNT"
)

// Variant describes one package variant of a golden product, e.g.
// {unit: "g", value: 400, piece_count: 4}.
type Variant struct {
	Unit       string          `json:"unit"`
	Value      decimal.Decimal `json:"value"`
	PieceCount *int            `json:"piece_count,omitempty"`
}

// GProduct is the canonical (golden) record for one EAN, produced by LLM
// normalization. The embedding is an opaque 768-float vector.
type GProduct struct {
	ID                 int64     `json:"id"`
	EAN                string    `json:"ean"` // unique
	CanonicalName      string    `json:"canonical_name"`
	Brand              *string   `json:"brand"`
	Category           string    `json:"category"`
	BaseUnitType       string    `json:"base_unit_type"`
	Variants           []Variant `json:"variants"`
	TextForEmbedding   string    `json:"text_for_embedding"`
	Keywords           []string  `json:"keywords"`
	IsGenericProduct   bool      `json:"is_generic_product"`
	SeasonalStartMonth *int      `json:"seasonal_start_month"`
	SeasonalEndMonth   *int      `json:"seasonal_end_month"`
	Embedding          []float32 `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// GPrice is one store-day price of a golden product with its unit-price
// normalization. PK (product_id, store_id, price_date).
type GPrice struct {
	ProductID        int64            `json:"product_id"`
	StoreID          int64            `json:"store_id"`
	PriceDate        time.Time        `json:"price_date"`
	RegularPrice     *decimal.Decimal `json:"regular_price"`
	SpecialPrice     *decimal.Decimal `json:"special_price"`
	PricePerKg       *decimal.Decimal `json:"price_per_kg"`
	PricePerL        *decimal.Decimal `json:"price_per_l"`
	PricePerPiece    *decimal.Decimal `json:"price_per_piece"`
	IsOnSpecialOffer bool             `json:"is_on_special_offer"`
}

// GProductBestOffer tracks the minimum observed unit price per golden
// product, plus an in-season minimum for seasonal products.
type GProductBestOffer struct {
	ProductID            int64            `json:"product_id"` // unique
	BestUnitPricePerKg   *decimal.Decimal `json:"best_unit_price_per_kg"`
	BestUnitPricePerL    *decimal.Decimal `json:"best_unit_price_per_l"`
	BestUnitPricePerPc   *decimal.Decimal `json:"best_unit_price_per_piece"`
	LowestPriceInSeason  *decimal.Decimal `json:"lowest_price_in_season"`
	BestPriceStoreID     *int64           `json:"best_price_store_id"`
	BestPriceFoundAt     time.Time        `json:"best_price_found_at"`
}

// Crawl and import run statuses.
const (
	RunStarted = "STARTED"
	RunSuccess = "SUCCESS"
	RunFailed  = "FAILED"
	RunSkipped = "SKIPPED"
)

// CrawlRun is the control-plane record of one per-chain crawl attempt.
type CrawlRun struct {
	ID        int64     `json:"id"`
	ChainName string    `json:"chain_name"`
	CrawlDate time.Time `json:"crawl_date"`
	Status    string    `json:"status"`
	Error     *string   `json:"error"`
	NStores   int       `json:"n_stores"`
	NProducts int       `json:"n_products"`
	NPrices   int       `json:"n_prices"`
	Elapsed   float64   `json:"elapsed"`
	Timestamp time.Time `json:"timestamp"`
}

// ImportRun is the control-plane record of one per-chain import.
// Unique on (chain_name, import_date).
type ImportRun struct {
	ID           int64     `json:"id"`
	CrawlRunID   *int64    `json:"crawl_run_id"`
	ChainName    string    `json:"chain_name"`
	ImportDate   time.Time `json:"import_date"`
	Status       string    `json:"status"`
	Error        *string   `json:"error"`
	NStores      int       `json:"n_stores"`
	NProducts    int       `json:"n_products"`
	NPrices      int       `json:"n_prices"`
	Elapsed      float64   `json:"elapsed"`
	Timestamp    time.Time `json:"timestamp"`
	UnzippedPath *string   `json:"unzipped_path"`
}

// User is the identity row; password_hash is bcrypt.
type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	DisplayName     *string   `json:"display_name"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// UserLocation is a saved location of a user (home, work, ...).
type UserLocation struct {
	ID     int64   `json:"id"`
	UserID int64   `json:"user_id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// Chat message senders.
const (
	SenderUser       = "user"
	SenderAI         = "ai"
	SenderToolCall   = "tool_call"
	SenderToolOutput = "tool_output"
)

// ChatMessage is one persisted turn fragment of a chat session. Messages
// within a session are totally ordered by timestamp.
type ChatMessage struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	SessionID   string    `json:"session_id"`
	Sender      string    `json:"sender"`
	Content     *string   `json:"content"`
	ToolCalls   []byte    `json:"tool_calls,omitempty"`   // JSONB
	ToolOutputs []byte    `json:"tool_outputs,omitempty"` // JSONB
	Timestamp   time.Time `json:"timestamp"`
}

// ShoppingList groups items a user intends to buy.
type ShoppingList struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ShoppingListItem is one entry of a shopping list, optionally bound to a
// golden product.
type ShoppingListItem struct {
	ID         int64  `json:"id"`
	ListID     int64  `json:"list_id"`
	GProductID *int64 `json:"g_product_id"`
	Note       string `json:"note"`
	Quantity   int    `json:"quantity"`
	IsChecked  bool   `json:"is_checked"`
}
