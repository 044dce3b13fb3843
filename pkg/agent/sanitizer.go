// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package agent

import (
	"regexp"
	"strings"
)

// Markup the model may leak despite the prompts. Ordered most specific
// to most general: paired blocks with content go first so their inner
// text is removed along with the tags, then self-closing forms, then
// orphan tags. Namespace-prefixed variants of each tag are covered.
var markupPatterns = []*regexp.Regexp{
	// Paired blocks with content.
	regexp.MustCompile(`(?s)<tool_call>.*?</tool_call>`),
	regexp.MustCompile(`(?s)<(?:\w+:)?function_calls>.*?</(?:\w+:)?function_calls>`),
	regexp.MustCompile(`(?s)<(?:\w+:)?invoke\b[^>]*>.*?</(?:\w+:)?invoke>`),
	regexp.MustCompile(`(?s)<tool_result>.*?</tool_result>`),
	// Self-closing variants.
	regexp.MustCompile(`<tool_call\b[^/]*/\s*>`),
	regexp.MustCompile(`<(?:\w+:)?function_calls\b[^/]*/\s*>`),
	regexp.MustCompile(`<(?:\w+:)?invoke\b[^/]*/\s*>`),
	// Orphan opening or closing tags.
	regexp.MustCompile(`</?tool_call[^>]*>`),
	regexp.MustCompile(`</?(?:\w+:)?function_calls[^>]*>`),
	regexp.MustCompile(`</?(?:\w+:)?invoke[^>]*>`),
	regexp.MustCompile(`</?(?:\w+:)?parameter[^>]*>`),
	regexp.MustCompile(`</?tool_result[^>]*>`),
}

var multiBlank = regexp.MustCompile(`\n{3,}`)

// Sanitize strips internal tool-call markup from agent output and
// collapses the blank lines left behind. Clean text passes through
// unchanged; the operation is idempotent.
func Sanitize(content string) string {
	if content == "" {
		return content
	}
	result := content
	for _, pattern := range markupPatterns {
		result = pattern.ReplaceAllString(result, "")
	}
	result = multiBlank.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
