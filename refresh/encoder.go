package refresh

import (
	"bytes"
	"encoding/binary"
	"time"
)

const (
	credentialFormatVersionCurrent = 1
	encodedCredentialLen           = 1 + 8 + 8
)

// encodeCredential packs the owner and creation time of cred. The value is the
// storage key and is not repeated in the blob.
func encodeCredential(cred Credential) []byte {
	var buf bytes.Buffer
	buf.Grow(encodedCredentialLen)

	buf.WriteByte(credentialFormatVersionCurrent)
	_ = binary.Write(&buf, binary.BigEndian, cred.OwnerUserID)
	_ = binary.Write(&buf, binary.BigEndian, cred.CreatedAt.UnixNano())

	return buf.Bytes()
}

func decodeCredential(value string, data []byte) (Credential, error) {
	if len(data) != encodedCredentialLen {
		return Credential{}, ErrCorruptCredential
	}
	if data[0] != credentialFormatVersionCurrent {
		return Credential{}, ErrCorruptCredential
	}

	owner := int64(binary.BigEndian.Uint64(data[1:9]))
	created := int64(binary.BigEndian.Uint64(data[9:17]))
	if owner == 0 {
		return Credential{}, ErrCorruptCredential
	}

	return Credential{
		Value:       value,
		OwnerUserID: owner,
		CreatedAt:   time.Unix(0, created).UTC(),
	}, nil
}
