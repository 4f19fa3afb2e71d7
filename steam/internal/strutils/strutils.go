// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package strutils

import "strings"

// StrListContains looks for a string in a list of strings.
func StrListContains(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}
	return false
}

// StrListContainsCaseInsensitive looks for a string in a list of strings,
// ignoring case.
func StrListContainsCaseInsensitive(haystack []string, needle string) bool {
	for _, item := range haystack {
		if strings.EqualFold(item, needle) {
			return true
		}
	}
	return false
}

// FirstValue returns the first non-empty value, after trimming, from a comma
// separated header value such as X-Forwarded-Proto.
func FirstValue(s string) string {
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
