package actions

import "fmt"

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	documentSeparator = "\n\n---\n\n"
)

// formatDocument renders one retrieved document in the tagged form the
// search actions hand back to the model.
func formatDocument(source, page, content string) string {
	return fmt.Sprintf("<Document source=\"%s\" page=\"%s\"/>\n%s\n</Document>", source, page, content)
}
