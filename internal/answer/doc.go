// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer turns raw answer payloads into displayable results.
//
// The service answers either with free text or with a JSON document whose
// "response" field holds a list of role-model recommendations. Classify
// accepts anything and always produces a text answer; malformed JSON is
// simply shown as text.
//
// # Usage
//
//	res := answer.Classify(raw)
//	fmt.Println(answer.Sanitize(res.Text))
//	for _, rm := range res.RoleModels {
//	    fmt.Printf("%d years - %s (%s)\n", rm.Years, rm.CareerTitle, rm.Name)
//	}
package answer
