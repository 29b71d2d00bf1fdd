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

/*
Package seedfile persists the last known cluster membership so a restarted
client can find the cluster even when its configured seeds are gone.
*/
package seedfile

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/lni/vfs"
)

const tmpSuffix = ".tmp"

// State is the persisted membership.
type State struct {
	Version uint64            `json:"version"`
	Members map[uint64]string `json:"members"`
}

// Addresses returns the member addresses in a stable order.
func (s State) Addresses() []string {
	out := make([]string, 0, len(s.Members))
	for _, addr := range s.Members {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Load reads the state file. The returned boolean value is false when the file
// does not exist.
func Load(fs vfs.FS, path string) (State, bool, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, false, nil
		}
		return State{}, false, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return State{}, false, errors.Wrapf(err, "read %s", path)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, false, errors.Wrapf(err, "decode %s", path)
	}
	return s, true, nil
}

// Save atomically replaces the state file.
func Save(fs vfs.FS, path string, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "mkdir for %s", path)
	}
	tmp := path + tmpSuffix
	f, err := fs.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "sync %s", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp)
	}
	return errors.Wrapf(fs.Rename(tmp, path), "rename %s", tmp)
}
