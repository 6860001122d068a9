package domain

// Role is a staff role that can sign in to a terminal.
type Role struct {
	ID    string `yaml:"id"    json:"id"`
	Label string `yaml:"label" json:"label"`
	PIN   string `yaml:"pin"   json:"-"`
}

// DrugStandard is one entry of the reference standards library.
type DrugStandard struct {
	ID           string `yaml:"id"           json:"id"`
	Name         string `yaml:"name"         json:"name"`
	Manufacturer string `yaml:"manufacturer" json:"manufacturer"`
	Type         string `yaml:"type"         json:"type"`
	Pharmacy     string `yaml:"pharmacy"     json:"pharmacy"`
	Location     string `yaml:"location"     json:"location"`
	Stock        string `yaml:"stock"        json:"stock"`
}

// PassportEvent is one step of a batch's provenance timeline.
type PassportEvent struct {
	Stage    string `yaml:"stage"    json:"stage"`
	Location string `yaml:"location" json:"location"`
	Date     string `yaml:"date"     json:"date"`
	Status   string `yaml:"status"   json:"status"`
	Temp     string `yaml:"temp"     json:"temp,omitempty"`
	Hash     string `yaml:"hash"     json:"hash"`
}

// Passport is the digital provenance record of a batch.
type Passport struct {
	ID       string          `yaml:"id"       json:"id"`
	BatchRef string          `yaml:"batch"    json:"batch"`
	Product  string          `yaml:"product"  json:"product"`
	Timeline []PassportEvent `yaml:"timeline" json:"timeline"`
}

// ScoreBreakdown splits a supplier's trust score by criterion. The parts
// add up to the score.
type ScoreBreakdown struct {
	OnTime     int `yaml:"onTime"     json:"onTime"`
	Compliance int `yaml:"compliance" json:"compliance"`
	Rejected   int `yaml:"rejected"   json:"rejected"`
	Docs       int `yaml:"docs"       json:"docs"`
}

// Total is the score the breakdown adds up to.
func (b ScoreBreakdown) Total() int {
	return b.OnTime + b.Compliance + b.Rejected + b.Docs
}

// Supplier is a rated supplier. History holds the monthly scores, oldest
// first, ending with the current one.
type Supplier struct {
	ID        int            `yaml:"id"        json:"id"`
	Name      string         `yaml:"name"      json:"name"`
	Score     int            `yaml:"score"     json:"score"`
	Status    SupplierStatus `yaml:"status"    json:"status"`
	Breakdown ScoreBreakdown `yaml:"breakdown" json:"breakdown"`
	History   []int          `yaml:"history"   json:"history"`
}
