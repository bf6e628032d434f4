// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeranaias/navi-tui/internal/util"
)

// Responder produces the answer text for a question.
type Responder func(question string) string

// recommendationKeywords switch the canned responder to role model cards.
var recommendationKeywords = []string{"role model", "recommend", "mentor", "who "}

// RoleModel is the wire shape of one recommendation entry.
type RoleModel struct {
	Years       int    `json:"years"`
	CareerTitle string `json:"careerTitle"`
	Name        string `json:"name"`
}

var cannedRoleModels = []RoleModel{
	{Years: 12, CareerTitle: "Data Engineer", Name: "Kim Minji"},
	{Years: 7, CareerTitle: "Product Designer", Name: "Lee Jiwoo"},
	{Years: 3, CareerTitle: "Backend Developer", Name: "Park Seojun"},
}

// DefaultResponder answers with role model recommendations when the question
// asks for them and with a short markdown answer otherwise.
func DefaultResponder(question string) string {
	lower := strings.ToLower(question)
	for _, kw := range recommendationKeywords {
		if strings.Contains(lower, kw) {
			return RecommendationAnswer(cannedRoleModels)
		}
	}

	topic := strings.TrimRight(util.FirstLine(question), "?!. ")
	return fmt.Sprintf("## About %q\n\n"+
		"Here is how people usually get started:\n\n"+
		"1. Learn the fundamentals through a course or a side project.\n"+
		"2. Build a small portfolio and share it.\n"+
		"3. Talk to people already doing the work.\n\n"+
		"Ask me for **role models** to see people who took this path.", topic)
}

// RecommendationAnswer encodes entries the way the service embeds role model
// recommendations in an answer.
func RecommendationAnswer(entries []RoleModel) string {
	data, err := json.Marshal(map[string]any{"response": entries})
	if err != nil {
		return ""
	}
	return string(data)
}
