// =============================================================================
// SEPA Member Collection Exporter - Document Assembler
// =============================================================================
//
// This module turns a grouping result and the club's SEPA identity into a
// pain.008.003.02 direct debit document.
//
// XML STRUCTURE:
//   The generated document follows this nesting pattern:
//
//   <Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.008.003.02">
//     <CstmrDrctDbtInitn>
//       <GrpHdr>                      <!-- MsgId, CreDtTm, NbOfTxs, CtrlSum -->
//       <PmtInf>                      <!-- one block per payment group -->
//         <DrctDbtTxInf>              <!-- one block per member -->
//         <DrctDbtTxInf>
//       </PmtInf>
//     </CstmrDrctDbtInitn>
//   </Document>
//
// The group header totals (NbOfTxs, CtrlSum) always equal the sum over the
// emitted transaction blocks; both are computed from the same grouping, never
// supplied by the caller.
//
// =============================================================================

package sepa

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/vereinskasse/sepa-exporter/internal/people"
)

// documentNamespace is the pain.008.003.02 message namespace.
const documentNamespace = "urn:iso:std:iso:20022:tech:xsd:pain.008.003.02"

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

const schemaLocation = documentNamespace + " pain.008.003.02.xsd"

// utf8BOM is prepended when the receiving banking software insists on a byte
// order mark.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// SEQUENCE TYPES
// =============================================================================

// SequenceType is the SEPA collection sequence (SeqTp element).
type SequenceType string

const (
	// SequenceFirst marks the first collection under a mandate.
	SequenceFirst SequenceType = "FRST"

	// SequenceRecurring marks a follow-up collection under a known mandate.
	SequenceRecurring SequenceType = "RCUR"

	// SequenceOneOff marks a single collection without follow-ups.
	SequenceOneOff SequenceType = "OOFF"

	// SequenceFinal marks the last collection under a mandate.
	SequenceFinal SequenceType = "FNAL"
)

// Valid reports whether the sequence type is one of the four SEPA values.
func (s SequenceType) Valid() bool {
	switch s {
	case SequenceFirst, SequenceRecurring, SequenceOneOff, SequenceFinal:
		return true
	}
	return false
}

// =============================================================================
// ASSEMBLY OPTIONS
// =============================================================================

// AssembleOptions contains options for document generation.
type AssembleOptions struct {
	// WithBOM prepends a UTF-8 byte order mark. Some banking programs refuse
	// files without it.
	// Default: true
	WithBOM bool

	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// Now supplies the creation timestamp (CreDtTm). Injectable so that
	// tests generate byte-identical documents.
	// Default: time.Now
	Now func() time.Time
}

// DefaultAssembleOptions returns the default assembly options.
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{
		WithBOM: true,
		Indent:  "  ",
		Now:     time.Now,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// AssemblyError reports that the originator data or sequence type cannot form
// a schema-valid document.
type AssemblyError struct {
	Field  string
	Detail string
}

// Error implements the error interface.
func (e *AssemblyError) Error() string {
	return fmt.Sprintf("cannot assemble direct debit document: %s %s", e.Field, e.Detail)
}

// =============================================================================
// DOCUMENT MODEL
// =============================================================================
// Element order matters to the schema, so the struct field order mirrors it.

type document struct {
	XMLName        xml.Name   `xml:"Document"`
	Namespace      string     `xml:"xmlns,attr"`
	XSINamespace   string     `xml:"xmlns:xsi,attr"`
	SchemaLocation string     `xml:"xsi:schemaLocation,attr"`
	Initiation     initiation `xml:"CstmrDrctDbtInitn"`
}

type initiation struct {
	GroupHeader groupHeader   `xml:"GrpHdr"`
	Payments    []paymentInfo `xml:"PmtInf"`
}

type groupHeader struct {
	MsgID            string `xml:"MsgId"`
	CreationDateTime string `xml:"CreDtTm"`
	TransactionCount int    `xml:"NbOfTxs"`
	ControlSum       string `xml:"CtrlSum"`
	InitiatingParty  party  `xml:"InitgPty"`
}

type party struct {
	Name string `xml:"Nm"`
}

type paymentInfo struct {
	PmtInfID         string          `xml:"PmtInfId"`
	Method           string          `xml:"PmtMtd"`
	BatchBooking     bool            `xml:"BtchBookg"`
	TransactionCount int             `xml:"NbOfTxs"`
	ControlSum       string          `xml:"CtrlSum"`
	TypeInfo         paymentTypeInfo `xml:"PmtTpInf"`
	CollectionDate   string          `xml:"ReqdColltnDt"`
	Creditor         party           `xml:"Cdtr"`
	CreditorAccount  account         `xml:"CdtrAcct"`
	CreditorAgent    agent           `xml:"CdtrAgt"`
	ChargeBearer     string          `xml:"ChrgBr"`
	CreditorScheme   creditorScheme  `xml:"CdtrSchmeId"`
	Transactions     []transaction   `xml:"DrctDbtTxInf"`
}

type paymentTypeInfo struct {
	ServiceLevel    code   `xml:"SvcLvl"`
	LocalInstrument code   `xml:"LclInstrm"`
	SequenceType    string `xml:"SeqTp"`
}

type code struct {
	Code string `xml:"Cd"`
}

type account struct {
	ID accountID `xml:"Id"`
}

type accountID struct {
	IBAN string `xml:"IBAN"`
}

type agent struct {
	Institution institution `xml:"FinInstnId"`
}

type institution struct {
	BIC string `xml:"BIC"`
}

type creditorScheme struct {
	ID schemeID `xml:"Id"`
}

type schemeID struct {
	Private privateID `xml:"PrvtId"`
}

type privateID struct {
	Other otherID `xml:"Othr"`
}

type otherID struct {
	ID     string     `xml:"Id"`
	Scheme schemeName `xml:"SchmeNm"`
}

type schemeName struct {
	Proprietary string `xml:"Prtry"`
}

type transaction struct {
	PaymentID     paymentID  `xml:"PmtId"`
	Amount        amount     `xml:"InstdAmt"`
	Mandate       mandate    `xml:"DrctDbtTx>MndtRltdInf"`
	DebtorAgent   agent      `xml:"DbtrAgt"`
	Debtor        party      `xml:"Dbtr"`
	DebtorAccount account    `xml:"DbtrAcct"`
	Remittance    remittance `xml:"RmtInf"`
}

type paymentID struct {
	EndToEndID string `xml:"EndToEndId"`
}

type amount struct {
	Currency string `xml:"Ccy,attr"`
	Value    string `xml:",chardata"`
}

type mandate struct {
	MandateID     string `xml:"MndtId"`
	SignatureDate string `xml:"DtOfSgntr"`
	AmendmentFlag bool   `xml:"AmdmntInd"`
}

type remittance struct {
	Unstructured string `xml:"Ustrd"`
}

// =============================================================================
// ASSEMBLY
// =============================================================================

// Assemble creates a pain.008.003.02 document from the grouping result.
//
// PARAMETERS:
//   - originator: The club's SEPA identity.
//   - grouping: The payment groups and totals to emit.
//   - sequence: The collection sequence type shared by all groups.
//
// RETURNS:
//   - The document as a byte slice, BOM included when configured.
//   - An *AssemblyError if the originator data cannot form a schema-valid
//     document.
func Assemble(originator people.Originator, grouping Grouping, sequence SequenceType) ([]byte, error) {
	return AssembleWithOptions(originator, grouping, sequence, DefaultAssembleOptions())
}

// AssembleWithOptions creates a pain.008.003.02 document with custom options.
func AssembleWithOptions(originator people.Originator, grouping Grouping, sequence SequenceType, options AssembleOptions) ([]byte, error) {
	if err := checkOriginator(originator, grouping, sequence); err != nil {
		return nil, err
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	doc := document{
		Namespace:      documentNamespace,
		XSINamespace:   xsiNamespace,
		SchemaLocation: schemaLocation,
		Initiation: initiation{
			GroupHeader: groupHeader{
				MsgID:            originator.MsgID,
				CreationDateTime: DateTimeString(options.Now()),
				TransactionCount: grouping.TransactionCount(),
				ControlSum:       grouping.ControlSum().String(),
				InitiatingParty:  party{Name: originator.Creator},
			},
		},
	}

	for _, group := range grouping.Groups {
		doc.Initiation.Payments = append(doc.Initiation.Payments, buildPaymentInfo(originator, group, sequence))
	}

	var buffer bytes.Buffer
	if options.WithBOM {
		buffer.Write(utf8BOM)
	}
	buffer.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")

	encoder := xml.NewEncoder(&buffer)
	encoder.Indent("", options.Indent)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal direct debit document: %w", err)
	}
	buffer.WriteByte('\n')

	return buffer.Bytes(), nil
}

// buildPaymentInfo constructs one PmtInf block.
//
// STRUCTURE:
//   <PmtInf>
//     <PmtInfId>2024-Q1-0</PmtInfId>
//     <PmtMtd>DD</PmtMtd>
//     ...
//     <DrctDbtTxInf>...</DrctDbtTxInf>
//   </PmtInf>
func buildPaymentInfo(originator people.Originator, group PaymentGroup, sequence SequenceType) paymentInfo {
	info := paymentInfo{
		PmtInfID:         group.PmtInfID,
		Method:           "DD",
		BatchBooking:     true,
		TransactionCount: len(group.Members),
		ControlSum:       group.Sum().String(),
		TypeInfo: paymentTypeInfo{
			ServiceLevel:    code{Code: "SEPA"},
			LocalInstrument: code{Code: "CORE"},
			SequenceType:    string(sequence),
		},
		CollectionDate:  DateString(originator.ExecutionDate),
		Creditor:        party{Name: originator.Creditor},
		CreditorAccount: account{ID: accountID{IBAN: originator.IBAN}},
		CreditorAgent:   agent{Institution: institution{BIC: originator.BIC}},
		ChargeBearer:    "SLEV",
		CreditorScheme: creditorScheme{
			ID: schemeID{
				Private: privateID{
					Other: otherID{
						ID:     originator.CreditorID,
						Scheme: schemeName{Proprietary: "SEPA"},
					},
				},
			},
		},
	}

	for _, member := range group.Members {
		info.Transactions = append(info.Transactions, transaction{
			PaymentID: paymentID{EndToEndID: "NOTPROVIDED"},
			Amount:    amount{Currency: "EUR", Value: group.Amount.String()},
			Mandate: mandate{
				MandateID:     fmt.Sprintf("%d", member.MembershipNumber),
				SignatureDate: DateString(member.AccountHolder.MandateSigned),
				AmendmentFlag: member.AccountHolder.MandateChanged,
			},
			DebtorAgent:   agent{Institution: institution{BIC: member.AccountHolder.BIC}},
			Debtor:        party{Name: member.AccountHolder.Name()},
			DebtorAccount: account{ID: accountID{IBAN: member.AccountHolder.IBAN}},
			Remittance:    remittance{Unstructured: originator.Purpose},
		})
	}

	return info
}

// checkOriginator verifies every identifier the document will carry. The
// checks run before any XML is produced so a broken profile never yields a
// half-written file.
func checkOriginator(originator people.Originator, grouping Grouping, sequence SequenceType) error {
	switch {
	case !sequence.Valid():
		return &AssemblyError{Field: "sequence type", Detail: fmt.Sprintf("%q is not one of FRST, RCUR, OOFF, FNAL", sequence)}
	case originator.Creator == "" || len(originator.Creator) > MaxCharNameField:
		return &AssemblyError{Field: "creator name", Detail: "is empty or longer than 70 characters"}
	case originator.Creditor == "" || len(originator.Creditor) > MaxCharNameField:
		return &AssemblyError{Field: "creditor name", Detail: "is empty or longer than 70 characters"}
	case !IsValidIBAN(originator.IBAN):
		return &AssemblyError{Field: "creditor iban", Detail: fmt.Sprintf("%q fails the checksum", originator.IBAN)}
	case !IsValidBIC(originator.BIC):
		return &AssemblyError{Field: "creditor bic", Detail: fmt.Sprintf("%q has invalid format", originator.BIC)}
	case !IsValidCreditorID(originator.CreditorID):
		return &AssemblyError{Field: "creditor id", Detail: fmt.Sprintf("%q fails the checksum", originator.CreditorID)}
	case originator.MsgID == "" || !IsValidMessageID(originator.MsgID):
		return &AssemblyError{Field: "message id", Detail: fmt.Sprintf("%q is empty, too long or carries forbidden characters", originator.MsgID)}
	case originator.ExecutionDate.IsZero():
		return &AssemblyError{Field: "execution date", Detail: "is not set"}
	}

	for _, group := range grouping.Groups {
		if !IsValidPmtInfID(group.PmtInfID) {
			return &AssemblyError{Field: "payment information id", Detail: fmt.Sprintf("%q is too long or carries forbidden characters", group.PmtInfID)}
		}
	}
	return nil
}
