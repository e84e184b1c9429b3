// Package core provides the ingestion and validation engine for treasury
// documents: MTM rate batches, exposure records (PO, SO, GRN, LC, creditors,
// debtors) and FX confirmations.
//
// The package has no UI or transport dependencies. Web handlers, CLI tools and
// tests drive it through [Service].
//
// # Pipeline
//
// An uploaded file becomes a [Document] and moves through:
//
//  1. Tokenize: CSV via [Tokenize], .xlsx and .xls via [TokenizeSpreadsheet]
//  2. Alias mapping: template labels become canonical keys ([MapDisplayToCanonical])
//  3. Validate: [Check] produces position-addressed [Diagnostic] values
//  4. Correct: a [Session] edits the preview rows and re-validates after each change
//  5. Submit: [IsSubmittable] gates, [Serialize] renders canonical CSV for the [Transport]
//
// # Schemas
//
// Each document type is a [Schema] registered at init time. Schemas are data:
// the built-in set lives in internal/core/tables as YAML and is loaded with
// [NewSchema]. Nothing in the validator branches on document type.
//
//	core.Register(core.MustSchema(core.SchemaDefinition{
//	    Type:  "mtm",
//	    Group: "Forwards",
//	    Fields: []core.FieldDefinition{
//	        {Name: "currency_pair", Required: true,
//	            Rules: []core.RuleDefinition{{Type: "pattern", Regex: `^[A-Z]{3}/[A-Z]{3}$`}}},
//	    },
//	}))
//
// # Document lifecycle
//
// Pending → Processing → Success | Error. A correction session that clears
// every diagnostic moves a document from Error straight to Success. A failed
// or timed-out submission moves it back to Error with a SubmissionFailed or
// SubmissionTimeout diagnostic; the document is kept for retry.
//
// # Error Handling
//
// Problems in the data are never Go errors; they are diagnostics. Go errors
// are reserved for misuse (unknown document, session already open) and are
// mapped to user-facing messages with support codes by [MapError]:
//
//   - VAL: schema and addressing errors
//   - FILE: size, format and read errors
//   - UPL: upload capacity and request cancellation
//   - SES: correction session state
//   - SUB: submission and transport
package core
