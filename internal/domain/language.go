package domain

// Language is read-only reference data describing a supported language.
type Language struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Code        string `json:"code"`
	LatnCode    string `json:"latn_code,omitempty"`
	BCPCode     string `json:"bcp_code,omitempty"`
	IsDeleted   bool   `json:"-"`
}

// ShortCode returns the bare language code without a region subtag,
// e.g. "hi" for "hi-IN".
func ShortCode(code string) string {
	for i := 0; i < len(code); i++ {
		if code[i] == '-' {
			return code[:i]
		}
	}
	return code
}
