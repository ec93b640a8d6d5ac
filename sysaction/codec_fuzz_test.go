package sysaction

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tos-network/gvault/common/hexutil"
	"github.com/tos-network/gvault/params"
)

// FuzzDecode checks that arbitrary tx data either decodes into a well-formed
// action or fails wrapping ErrInvalidSysAction, and that whatever decodes also
// survives an encode/decode round trip.
func FuzzDecode(f *testing.F) {
	credit, _ := MakeSysAction(ActionVaultCredit, &CreditPayload{
		Recipient:  "0x00000000000000000000000000000000000000b1",
		Ciphertext: hexutil.Bytes(bytes.Repeat([]byte{1}, 64)),
		Proof:      hexutil.Bytes(bytes.Repeat([]byte{2}, 96)),
	})
	cancel, _ := MakeSysAction(ActionVaultWithdrawCancel, nil)
	f.Add(credit)
	f.Add(cancel)
	f.Add([]byte(`{"action":"VAULT_DEPOSIT","payload":{"amount":"600"}}`))
	f.Add([]byte(`{"action":""}`))
	f.Add([]byte(`{"payload":{}}`))
	f.Add([]byte(`{`))
	f.Add([]byte(nil))
	f.Add(bytes.Repeat([]byte{' '}, params.MaxSysActionBytes+1))

	f.Fuzz(func(t *testing.T, data []byte) {
		sa, err := Decode(data)
		if err != nil {
			if !errors.Is(err, ErrInvalidSysAction) {
				t.Fatalf("decode error does not wrap ErrInvalidSysAction: %v", err)
			}
			return
		}
		if sa.Action == "" {
			t.Fatal("decoded action with empty kind")
		}
		reenc, err := Encode(sa)
		if err != nil {
			t.Fatalf("re-encode decoded action: %v", err)
		}
		if len(reenc) > params.MaxSysActionBytes {
			// JSON escaping can grow the encoding past the wire cap.
			return
		}
		sa2, err := Decode(reenc)
		if err != nil {
			t.Fatalf("decode re-encoded action: %v", err)
		}
		if sa2.Action != sa.Action {
			t.Fatalf("action changed across round trip: %q != %q", sa2.Action, sa.Action)
		}
	})
}
