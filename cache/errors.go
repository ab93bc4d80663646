// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrLengthMismatch is returned when a producer yields a sequence whose
	// length differs from the requested count. The offending sequence is
	// discarded and nothing is stored under the key.
	ErrLengthMismatch = errors.New("produced sequence length does not match requested count")

	// ErrNegativeCount is returned for requests with a negative count.
	ErrNegativeCount = errors.New("sample count must not be negative")
)
