package api

import "onboarding-service/internal/common/validation"

// Request bodies are shape-checked before they are decoded into typed
// sections. Business rules (enums, EIN format, emails) are left to the
// section validators so their messages reach the applicant unchanged.

const businessProfileDef = `{
  "type": "object",
  "properties": {
    "businessName": {"type": "string"},
    "businessType": {"type": "string"},
    "industry": {"type": "string"},
    "ein": {"type": "string"},
    "state": {"type": "string"},
    "city": {"type": "string"},
    "street": {"type": "string"},
    "building": {"type": "string"},
    "zip": {"type": "string"}
  }
}`

const customersDef = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "customerName": {"type": "string"},
      "contactPerson": {"type": "string"},
      "email": {"type": "string"},
      "phone": {"type": "string"},
      "billingAddress": {"type": "string"}
    }
  }
}`

const bankConnectionDef = `{
  "type": "object",
  "properties": {
    "bankId": {"type": "string"},
    "bankName": {"type": "string"},
    "isManual": {"type": "boolean"}
  }
}`

const invoicesDef = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name", "size"],
    "properties": {
      "name": {"type": "string"},
      "size": {"type": "integer", "minimum": 0}
    }
  }
}`

const agreementDef = `{
  "type": ["object", "null"],
  "properties": {
    "agreed": {"type": "boolean"},
    "signature": {"type": "string"},
    "signedAt": {"type": "string"},
    "agreementVersion": {"type": "string"}
  }
}`

var (
	draftPatchSchema = validation.MustCompileSchema("draft-patch", `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "businessProfile": `+businessProfileDef+`,
    "customers": `+customersDef+`,
    "bankConnection": `+bankConnectionDef+`,
    "invoices": `+invoicesDef+`,
    "factoringAgreement": `+agreementDef+`
  }
}`)

	bankConnectSchema = validation.MustCompileSchema("bank-connect", `{
  "type": "object",
  "properties": {
    "bankId": {"type": "string"},
    "manual": {
      "type": "object",
      "properties": {
        "bankName": {"type": "string"},
        "accountNumber": {"type": "string"},
        "routingNumber": {"type": "string"},
        "accountType": {"type": "string"}
      }
    }
  }
}`)

	agreementSchema = validation.MustCompileSchema("agreement", `{
  "type": "object",
  "required": ["agreed", "signature"],
  "properties": {
    "agreed": {"type": "boolean"},
    "signature": {"type": "string"}
  }
}`)
)
