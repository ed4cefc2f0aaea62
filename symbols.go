package unpdf

// Exported entry points of the engine image. These names are part of the
// binary compatibility contract.
const (
	SymVersion      = "unpdf_version"
	SymLastError    = "unpdf_last_error"
	SymToMarkdown   = "unpdf_to_markdown"
	SymToText       = "unpdf_to_text"
	SymToJSON       = "unpdf_to_json"
	SymGetInfo      = "unpdf_get_info"
	SymGetPageCount = "unpdf_get_page_count"
	SymIsPDF        = "unpdf_is_pdf"
	SymFreeResult   = "unpdf_free_result"

	SymParseFile    = "unpdf_parse_file"
	SymParseBytes   = "unpdf_parse_bytes"
	SymFreeDocument = "unpdf_free_document"

	// Handle-based renderers carry their own names so they never collide
	// with the path-based calls above.
	SymDocumentToMarkdown = "unpdf_document_to_markdown"
	SymDocumentToText     = "unpdf_document_to_text"
	SymDocumentToJSON     = "unpdf_document_to_json"

	SymPlainText     = "unpdf_plain_text"
	SymSectionCount  = "unpdf_section_count"
	SymResourceCount = "unpdf_resource_count"
	SymGetTitle      = "unpdf_get_title"
	SymGetAuthor     = "unpdf_get_author"
	SymResourceIDs   = "unpdf_get_resource_ids"
	SymResourceInfo  = "unpdf_get_resource_info"
	SymResourceData  = "unpdf_get_resource_data"

	SymFreeString = "unpdf_free_string"
	SymFreeBytes  = "unpdf_free_bytes"
)

// Symbols lists every entry point an engine image must export.
var Symbols = []string{
	SymVersion,
	SymLastError,
	SymToMarkdown,
	SymToText,
	SymToJSON,
	SymGetInfo,
	SymGetPageCount,
	SymIsPDF,
	SymFreeResult,
	SymParseFile,
	SymParseBytes,
	SymFreeDocument,
	SymDocumentToMarkdown,
	SymDocumentToText,
	SymDocumentToJSON,
	SymPlainText,
	SymSectionCount,
	SymResourceCount,
	SymGetTitle,
	SymGetAuthor,
	SymResourceIDs,
	SymResourceInfo,
	SymResourceData,
	SymFreeString,
	SymFreeBytes,
}
