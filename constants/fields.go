package constants

// RecordFieldCount is the fixed number of fields in an extraction record.
const RecordFieldCount = 9

// RecordHeader holds the spreadsheet column headers, in record field order.
var RecordHeader = []string{
	"Professor Name",
	"Certificate Issue Date",
	"Certificate Number",
	"Course/Exam/Purpose",
	"Grade/Marks",
	"Institution/Issuing Authority",
	"Registration/Roll No",
	"Address",
	"Other Details",
}
