// Copyright 2025 The peanutbutterandjam Authors
// This file is part of the peanutbutterandjam library.
//
// The peanutbutterandjam library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The peanutbutterandjam library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the peanutbutterandjam library. If not, see <http://www.gnu.org/licenses/>.

package codec

import "errors"

// Decode failures are always reported as an error value; the decoder never
// panics and never reads past the buffer it was given.
var (
	ErrTruncated     = errors.New("codec: truncated input")
	ErrInvalidPrefix = errors.New("codec: invalid prefix byte")
	ErrOverlong      = errors.New("codec: overlong or inconsistent length")
	ErrTooLarge      = errors.New("codec: value too large for target width")
)
