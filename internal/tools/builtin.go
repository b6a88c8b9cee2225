package tools

import (
	"context"
	"crypto/md5"
	"encoding/hex"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"github.com/MKhiriev/go-proc-box/models"
)

// Names of the built-in tools.
const (
	MD5ToolName           = "MD5 calculator"
	SHA3ToolName          = "SHA3-256 calculator"
	BLAKE3ToolName        = "BLAKE3 calculator"
	ZstdToolName          = "Zstd compressor"
	LZ4ToolName           = "LZ4 compressor"
	ColorInverterToolName = "Color inverter"
)

// BuiltinProvider supplies the tools shipped with the server.
func BuiltinProvider() Provider {
	return ProviderFunc(func() []Tool {
		return []Tool{
			NewMD5Tool(),
			NewSHA3Tool(),
			NewBLAKE3Tool(),
			NewZstdTool(),
			NewLZ4Tool(),
			NewColorInverterTool(),
		}
	})
}

// info carries the descriptive part every tool shares.
type info struct {
	name  string
	brief string
	long  string
	types []string
}

func (i info) Name() string               { return i.name }
func (i info) BriefDescription() string   { return i.brief }
func (i info) LongDescription() string    { return i.long }
func (i info) ProcessableTypes() []string { return i.types }

// hashTool renders a digest of the whole content as lowercase hex text.
type hashTool struct {
	info
	sum func([]byte) []byte
}

func (t hashTool) ProcessFile(ctx context.Context, content []byte, _ string) (models.ToolOutput, error) {
	if err := ctx.Err(); err != nil {
		return models.ToolOutput{}, err
	}
	return models.ToolOutput{
		Content:     []byte(hex.EncodeToString(t.sum(content))),
		ContentType: "text/plain",
	}, nil
}

func NewMD5Tool() Tool {
	return hashTool{
		info: info{
			name:  MD5ToolName,
			brief: "Calculates the MD5 checksum of a file",
			long:  "Reads the whole file and returns its MD5 digest as 32 lowercase hexadecimal characters. Accepts any content type.",
		},
		sum: func(b []byte) []byte {
			s := md5.Sum(b)
			return s[:]
		},
	}
}

func NewSHA3Tool() Tool {
	return hashTool{
		info: info{
			name:  SHA3ToolName,
			brief: "Calculates the SHA3-256 digest of a file",
			long:  "Returns the FIPS 202 SHA3-256 digest of the file as 64 lowercase hexadecimal characters. Accepts any content type.",
		},
		sum: func(b []byte) []byte {
			s := sha3.Sum256(b)
			return s[:]
		},
	}
}

func NewBLAKE3Tool() Tool {
	return hashTool{
		info: info{
			name:  BLAKE3ToolName,
			brief: "Calculates the BLAKE3 digest of a file",
			long:  "Returns the 256-bit BLAKE3 digest of the file as 64 lowercase hexadecimal characters. Accepts any content type.",
		},
		sum: func(b []byte) []byte {
			s := blake3.Sum256(b)
			return s[:]
		},
	}
}
