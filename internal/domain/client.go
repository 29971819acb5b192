package domain

import (
	"strings"
	"time"
)

// ============================================================
// Clients
// ============================================================

// Document types an agent can prepare for a client.
const (
	DocumentBuyerBroker          = "Buyer Broker Agreement"
	DocumentExclusiveBuyerBroker = "Exclusive Buyer Broker Agreement"
)

// DocumentTypes lists every accepted document type.
var DocumentTypes = []string{DocumentBuyerBroker, DocumentExclusiveBuyerBroker}

// ClientRecord is the client as exchanged with the backend (snake_case).
// RetainerFee and DaysOfExecution are always serialized; nil means JSON null.
type ClientRecord struct {
	ID                       string     `json:"id,omitempty"`
	AgentID                  string     `json:"agent_id,omitempty"`
	CustomerName             string     `json:"customer_name"`
	Email                    string     `json:"email"`
	Phone                    string     `json:"phone"`
	Address                  string     `json:"address"`
	DocumentType             string     `json:"document_type"`
	SignatureImage           string     `json:"signature_image,omitempty"`
	BuyerInitials            string     `json:"buyer_initials,omitempty"`
	PropertyDescription      string     `json:"property_description"`
	PropertyDescriptionOther string     `json:"property_description_other,omitempty"`
	CompensationType         string     `json:"compensation_type"`
	CompensationValue        string     `json:"compensation_value"`
	ExpirationDate           string     `json:"expiration_date"`
	RetainerFee              *float64   `json:"retainer_fee"`
	DaysOfExecution          *int       `json:"days_of_execution"`
	CreatedAt                *time.Time `json:"created_at,omitempty"`
}

// ClientForm is the client as the web, portal and mobile apps see it (camelCase).
type ClientForm struct {
	ID                       string     `json:"id,omitempty"`
	AgentID                  string     `json:"agentId,omitempty"`
	CustomerName             string     `json:"customerName"`
	Email                    string     `json:"email"`
	Phone                    string     `json:"phone"`
	Address                  string     `json:"address"`
	DocumentType             string     `json:"documentType"`
	SignatureImage           string     `json:"signatureImage,omitempty"`
	BuyerInitials            string     `json:"buyerInitials,omitempty"`
	PropertyDescription      string     `json:"propertyDescription"`
	PropertyDescriptionOther string     `json:"propertyDescriptionOther,omitempty"`
	CompensationType         string     `json:"compensationType"`
	CompensationValue        string     `json:"compensationValue"`
	ExpirationDate           string     `json:"expirationDate"`
	RetainerFee              *float64   `json:"retainerFee"`
	DaysOfExecution          *int       `json:"daysOfExecution"`
	CreatedAt                *time.Time `json:"createdAt,omitempty"`
}

// FieldMapping pairs a UI field name with its API field name.
type FieldMapping struct {
	UI  string
	API string
}

// ClientFieldMap is the one table relating ClientForm and ClientRecord
// field names. Conversions and query-key translation both go through it.
var ClientFieldMap = []FieldMapping{
	{UI: "id", API: "id"},
	{UI: "agentId", API: "agent_id"},
	{UI: "customerName", API: "customer_name"},
	{UI: "email", API: "email"},
	{UI: "phone", API: "phone"},
	{UI: "address", API: "address"},
	{UI: "documentType", API: "document_type"},
	{UI: "signatureImage", API: "signature_image"},
	{UI: "buyerInitials", API: "buyer_initials"},
	{UI: "propertyDescription", API: "property_description"},
	{UI: "propertyDescriptionOther", API: "property_description_other"},
	{UI: "compensationType", API: "compensation_type"},
	{UI: "compensationValue", API: "compensation_value"},
	{UI: "expirationDate", API: "expiration_date"},
	{UI: "retainerFee", API: "retainer_fee"},
	{UI: "daysOfExecution", API: "days_of_execution"},
	{UI: "createdAt", API: "created_at"},
}

// ClientAPIField translates a UI field name to the backend's name.
func ClientAPIField(ui string) (string, bool) {
	for _, m := range ClientFieldMap {
		if m.UI == ui {
			return m.API, true
		}
	}
	return "", false
}

// ClientUIField translates a backend field name to the UI's name.
func ClientUIField(api string) (string, bool) {
	for _, m := range ClientFieldMap {
		if m.API == api {
			return m.UI, true
		}
	}
	return "", false
}

// RequiresRetainer reports whether the document type carries the
// retainer fee and days-of-execution terms.
func RequiresRetainer(documentType string) bool {
	return documentType == DocumentExclusiveBuyerBroker
}

// ToRecord converts the form to the backend representation. Retainer terms
// are transmitted only for exclusive agreements and are null otherwise,
// so stale values from a previous document type never leak through.
func (f *ClientForm) ToRecord() ClientRecord {
	r := ClientRecord{
		ID:                       f.ID,
		AgentID:                  f.AgentID,
		CustomerName:             strings.TrimSpace(f.CustomerName),
		Email:                    strings.TrimSpace(f.Email),
		Phone:                    strings.TrimSpace(f.Phone),
		Address:                  strings.TrimSpace(f.Address),
		DocumentType:             f.DocumentType,
		SignatureImage:           f.SignatureImage,
		BuyerInitials:            f.BuyerInitials,
		PropertyDescription:      f.PropertyDescription,
		PropertyDescriptionOther: f.PropertyDescriptionOther,
		CompensationType:         f.CompensationType,
		CompensationValue:        f.CompensationValue,
		ExpirationDate:           f.ExpirationDate,
		CreatedAt:                f.CreatedAt,
	}
	if RequiresRetainer(f.DocumentType) {
		r.RetainerFee = copyFloat(f.RetainerFee)
		r.DaysOfExecution = copyInt(f.DaysOfExecution)
	}
	return r
}

// ToForm converts the backend representation to the UI form.
func (r *ClientRecord) ToForm() ClientForm {
	f := ClientForm{
		ID:                       r.ID,
		AgentID:                  r.AgentID,
		CustomerName:             r.CustomerName,
		Email:                    r.Email,
		Phone:                    r.Phone,
		Address:                  r.Address,
		DocumentType:             r.DocumentType,
		SignatureImage:           r.SignatureImage,
		BuyerInitials:            r.BuyerInitials,
		PropertyDescription:      r.PropertyDescription,
		PropertyDescriptionOther: r.PropertyDescriptionOther,
		CompensationType:         r.CompensationType,
		CompensationValue:        r.CompensationValue,
		ExpirationDate:           r.ExpirationDate,
		CreatedAt:                r.CreatedAt,
	}
	if RequiresRetainer(r.DocumentType) {
		f.RetainerFee = copyFloat(r.RetainerFee)
		f.DaysOfExecution = copyInt(r.DaysOfExecution)
	}
	return f
}

// ClientForms converts a page of backend records.
func ClientForms(records []ClientRecord) []ClientForm {
	out := make([]ClientForm, 0, len(records))
	for i := range records {
		out = append(out, records[i].ToForm())
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Document is a binary file passed through from the backend.
type Document struct {
	ContentType string
	Filename    string
	Data        []byte
}
