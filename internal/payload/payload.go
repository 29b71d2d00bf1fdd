// Copyright 2017-2021 Lei Ni (nilei81@gmail.com) and other contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package payload

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"

	"github.com/coufalja/raftclient/raftio"
)

// ErrUnknownCompression is returned when the compression type of a payload is
// not supported.
var ErrUnknownCompression = errors.New("unknown compression type")

// Encode compresses data using the specified compression type. Empty payloads
// are never compressed, the returned type reflects what was applied.
func Encode(ct raftio.CompressionType,
	data []byte) ([]byte, raftio.CompressionType, error) {
	if len(data) == 0 {
		return data, raftio.NoCompression, nil
	}
	switch ct {
	case raftio.NoCompression:
		return data, raftio.NoCompression, nil
	case raftio.Snappy:
		return snappy.Encode(nil, data), raftio.Snappy, nil
	default:
		return nil, ct, errors.Wrapf(ErrUnknownCompression, "type %d", ct)
	}
}

// Decode returns the uncompressed payload.
func Decode(ct raftio.CompressionType, data []byte) ([]byte, error) {
	switch ct {
	case raftio.NoCompression:
		return data, nil
	case raftio.Snappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, errors.Wrap(err, "snappy decode")
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrUnknownCompression, "type %d", ct)
	}
}
