package entity

// LineItem is a single purchased item on an invoice.
type LineItem struct {
	ItemName string  `json:"item_name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// InvoiceRecord is the canonical schema every extraction path converges to.
// Field names are the sink's column contract; renaming any key is a breaking
// change for downstream consumers.
type InvoiceRecord struct {
	MailThreadID     string     `json:"mail_thread_id"`
	CompanyName      string     `json:"company_name"`
	PurchaseDate     string     `json:"purchase_date"`
	MailReceivedTime string     `json:"mail_received_time"`
	PurchaseReceiver string     `json:"purchase_receiver"`
	TotalPrice       string     `json:"total_price"`
	OtherExpenses    string     `json:"other_expenses"`
	Items            []LineItem `json:"items"`
}

// NewInvoiceRecord returns a record with every field present so sinks never
// have to branch on missing keys.
func NewInvoiceRecord() *InvoiceRecord {
	return &InvoiceRecord{Items: []LineItem{}}
}

// RawVendorRecord holds the candidate values a vendor parser found in invoice
// text. Lists keep first-seen order; normalization always takes the first
// element as a deterministic tie-break.
type RawVendorRecord struct {
	Organizations []string
	Dates         []string
	OrderNumbers  []string
	TotalAmounts  []string
	Shipping      []string
	OrderedBy     string
	Items         []LineItem
}

// EmailMetadata is parsed from the header block of a group's text artifact.
// Absent fields stay empty.
type EmailMetadata struct {
	SenderEmail  string
	ThreadID     string
	ReceivedTime string
	Subject      string
}
