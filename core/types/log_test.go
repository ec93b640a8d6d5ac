// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/tos-network/gvault/common"
	"github.com/tos-network/gvault/common/hexutil"
)

var unmarshalLogTests = map[string]struct {
	input     string
	want      *Log
	wantError error
}{
	"ok": {
		input: `{"address":"0x0000000000000000000000000000000054534f35","blockHash":"0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5","blockNumber":"0x2a","data":"0x00000000000003e8","logIndex":"0x1","topics":["0x813d54ae8313822b6c3fba3819b07669e0c68b56e2b389bafc751873cef552f7","0x00000000000000000000000058bdb108f80f3bedd5c405d320611ca32b7463cc"],"transactionHash":"0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706","transactionIndex":"0x0"}`,
		want: &Log{
			Address:     common.HexToAddress("0x0000000000000000000000000000000054534f35"),
			BlockHash:   common.HexToHash("0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5"),
			BlockNumber: 42,
			Data:        hexutil.MustDecode("0x00000000000003e8"),
			Index:       1,
			TxIndex:     0,
			TxHash:      common.HexToHash("0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706"),
			Topics: []common.Hash{
				common.HexToHash("0x813d54ae8313822b6c3fba3819b07669e0c68b56e2b389bafc751873cef552f7"),
				common.HexToHash("0x00000000000000000000000058bdb108f80f3bedd5c405d320611ca32b7463cc"),
			},
		},
	},
	"empty data": {
		input: `{"address":"0x0000000000000000000000000000000054534f35","blockHash":"0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5","blockNumber":"0x2a","data":"0x","logIndex":"0x1","topics":["0xc0cf8e376700ce37882288e80a7d5560ed23ae0aae51415cdcfa79bfbfa8c6d0","0x00000000000000000000000058bdb108f80f3bedd5c405d320611ca32b7463cc"],"transactionHash":"0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706","transactionIndex":"0x0"}`,
		want: &Log{
			Address:     common.HexToAddress("0x0000000000000000000000000000000054534f35"),
			BlockHash:   common.HexToHash("0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5"),
			BlockNumber: 42,
			Data:        []byte{},
			Index:       1,
			TxIndex:     0,
			TxHash:      common.HexToHash("0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706"),
			Topics: []common.Hash{
				common.HexToHash("0xc0cf8e376700ce37882288e80a7d5560ed23ae0aae51415cdcfa79bfbfa8c6d0"),
				common.HexToHash("0x00000000000000000000000058bdb108f80f3bedd5c405d320611ca32b7463cc"),
			},
		},
	},
	"missing block fields (pending logs)": {
		input: `{"address":"0x0000000000000000000000000000000054534f35","data":"0x","logIndex":"0x0","topics":["0xc0cf8e376700ce37882288e80a7d5560ed23ae0aae51415cdcfa79bfbfa8c6d0"],"transactionHash":"0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706","transactionIndex":"0x3"}`,
		want: &Log{
			Address:     common.HexToAddress("0x0000000000000000000000000000000054534f35"),
			BlockHash:   common.Hash{},
			BlockNumber: 0,
			Data:        []byte{},
			Index:       0,
			TxIndex:     3,
			TxHash:      common.HexToHash("0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706"),
			Topics: []common.Hash{
				common.HexToHash("0xc0cf8e376700ce37882288e80a7d5560ed23ae0aae51415cdcfa79bfbfa8c6d0"),
			},
		},
	},
	"Removed: true": {
		input: `{"address":"0x0000000000000000000000000000000054534f35","blockHash":"0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5","blockNumber":"0x2a","data":"0x","logIndex":"0x1","topics":["0xc0cf8e376700ce37882288e80a7d5560ed23ae0aae51415cdcfa79bfbfa8c6d0"],"transactionHash":"0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706","transactionIndex":"0x0","removed":true}`,
		want: &Log{
			Address:     common.HexToAddress("0x0000000000000000000000000000000054534f35"),
			BlockHash:   common.HexToHash("0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5"),
			BlockNumber: 42,
			Data:        []byte{},
			Index:       1,
			TxIndex:     0,
			TxHash:      common.HexToHash("0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706"),
			Topics: []common.Hash{
				common.HexToHash("0xc0cf8e376700ce37882288e80a7d5560ed23ae0aae51415cdcfa79bfbfa8c6d0"),
			},
			Removed: true,
		},
	},
	"missing data": {
		input:     `{"address":"0x0000000000000000000000000000000054534f35","blockHash":"0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5","blockNumber":"0x2a","logIndex":"0x1","topics":["0x813d54ae8313822b6c3fba3819b07669e0c68b56e2b389bafc751873cef552f7"],"transactionHash":"0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706","transactionIndex":"0x0"}`,
		wantError: fmt.Errorf("missing required field 'data' for Log"),
	},
	"oversized address": {
		input:     `{"address":"0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5","blockHash":"0x730e58c88c7d858dc5cd3d2d729846f7bc484f1d385cf8240b981c755a58d8d5","blockNumber":"0x2a","data":"0x","logIndex":"0x1","topics":["0x813d54ae8313822b6c3fba3819b07669e0c68b56e2b389bafc751873cef552f7"],"transactionHash":"0x7ac19a6f04e4781bc4cc9c823d8a29d7114dca5c51e39af9296c7212da688706","transactionIndex":"0x0"}`,
		wantError: fmt.Errorf("hex string has length 64, want 40 for common.Address"),
	},
}

func TestUnmarshalLog(t *testing.T) {
	dumper := spew.ConfigState{DisableMethods: true, Indent: "    "}
	for name, test := range unmarshalLogTests {
		var log *Log
		err := json.Unmarshal([]byte(test.input), &log)
		checkError(t, name, err, test.wantError)
		if test.wantError == nil && err == nil {
			if !reflect.DeepEqual(log, test.want) {
				t.Errorf("test %q:\nGOT %sWANT %s", name, dumper.Sdump(log), dumper.Sdump(test.want))
			}
		}
	}
}

func checkError(t *testing.T, testname string, got, want error) bool {
	if got == nil {
		if want != nil {
			t.Errorf("test %q: got no error, want %q", testname, want)
			return false
		}
		return true
	}
	if want == nil {
		t.Errorf("test %q: unexpected error %q", testname, got)
	} else if got.Error() != want.Error() {
		t.Errorf("test %q: got error %q, want %q", testname, got, want)
	}
	return false
}
