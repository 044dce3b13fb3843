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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLeavesCleanTextAlone(t *testing.T) {
	tests := []string{
		"The average temperature at 500m is 8.3 degC.",
		"Floats measured:\n- 6902746\n- 6902748\n\nBoth are active.",
		"Salinity < 35 PSU and temperature > 4 degC in that band.",
		"Use `query_argo_region` with a small bounding box.",
	}

	for _, text := range tests {
		assert.Equal(t, text, Sanitize(text))
	}
}

func TestSanitizeRemovesPairedBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "tool_call block",
			in:   "Checking that float.\n<tool_call>\n{\"name\": \"get_float_info\"}\n</tool_call>\nIt is active.",
			want: "Checking that float.\n\nIt is active.",
		},
		{
			name: "function_calls block",
			in:   "Before.\n<function_calls>\n<invoke name=\"get_float_info\">\n</invoke>\n</function_calls>\nAfter.",
			want: "Before.\n\nAfter.",
		},
		{
			name: "namespace-prefixed block",
			in:   "Answer.\n<ns1:function_calls>\n<ns1:invoke name=\"query_argo_region\">\n<ns1:parameter name=\"basin\">pacific</ns1:parameter>\n</ns1:invoke>\n</ns1:function_calls>\nDone.",
			want: "Answer.\n\nDone.",
		},
		{
			name: "tool_result block",
			in:   "Looked it up.\n<tool_result>\n{\"success\": true}\n</tool_result>\nThe float is drifting west.",
			want: "Looked it up.\n\nThe float is drifting west.",
		},
		{
			name: "standalone invoke pair",
			in:   "One moment. <x:invoke name=\"calculate_statistics\">args</x:invoke> The mean is 35.1 PSU.",
			want: "One moment.  The mean is 35.1 PSU.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeRemovesSelfClosingAndOrphanTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "self-closing tool_call",
			in:   "Working on it. <tool_call /> Here you go.",
			want: "Working on it.  Here you go.",
		},
		{
			name: "self-closing prefixed invoke",
			in:   "Hold on <q:invoke name=\"get_float_info\" /> done.",
			want: "Hold on  done.",
		},
		{
			name: "orphan closing tag",
			in:   "The trajectory spans 90 days.</tool_call>",
			want: "The trajectory spans 90 days.",
		},
		{
			name: "orphan opening tag at end",
			in:   "Let me check that for you <function_calls>",
			want: "Let me check that for you",
		},
		{
			name: "orphan parameter tags keep their value",
			in:   "The depth is <p:parameter name=\"depth\">500</p:parameter> meters.",
			want: "The depth is 500 meters.",
		},
		{
			name: "orphan tool_result tag",
			in:   "<tool_result>\nThe basin average is 14.2 degC.",
			want: "The basin average is 14.2 degC.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeCollapsesBlankRuns(t *testing.T) {
	in := "First paragraph.\n<tool_call>internal</tool_call>\n\n\nSecond paragraph."
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", Sanitize(in))

	assert.Equal(t, "a\n\nb", Sanitize("a\n\n\n\n\nb"))
}

func TestSanitizeTrimsAndHandlesEmpty(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
	assert.Equal(t, "", Sanitize("   \n\t  "))
	assert.Equal(t, "", Sanitize("<tool_call>only markup</tool_call>"))
	assert.Equal(t, "answer", Sanitize("\n  answer  \n"))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Plain answer with no markup.",
		"Mixed.\n<tool_call>x</tool_call>\n\n\n<ns:invoke name=\"a\">y</ns:invoke>\nEnd.",
		"Orphans </invoke> and <parameter name=\"x\"> scattered about.",
		"",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once))
	}
}
