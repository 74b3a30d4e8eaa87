package common

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

// InitialBalance is credited to every funded genesis account (2^60 planck).
const InitialBalance uint64 = 1 << 60

// ShellQuote quotes s for a POSIX shell so it is passed as a single word.
// Example: ShellQuote("Coldstack Validator staging") = "'Coldstack Validator staging'"
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=@,+%", r)
}

// ShellJoin quotes every argument and joins them with spaces
func ShellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = ShellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// DecodeStorageUint decodes a SCALE fixed-width little-endian unsigned integer
// returned by state_getStorage as a 0x-prefixed hex string.
// Example: DecodeStorageUint("0x65000000") = 101
func DecodeStorageUint(value string) (uint64, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return 0, fmt.Errorf("invalid storage value %q: %w", value, err)
	}
	switch len(raw) {
	case 4:
		return uint64(binary.LittleEndian.Uint32(raw)), nil
	case 8:
		return binary.LittleEndian.Uint64(raw), nil
	default:
		return 0, fmt.Errorf("unexpected storage value length %d", len(raw))
	}
}

// BootnodeAddr builds the libp2p address peers use to dial the boot node,
// e.g. /ip4/10.0.0.1/tcp/30333/p2p/12D3Koo...
// Host names that are not IP literals are encoded as /dns4.
func BootnodeAddr(host string, port int, peerID string) (string, error) {
	proto := "dns4"
	if ip := net.ParseIP(host); ip != nil {
		proto = "ip4"
		if ip.To4() == nil {
			proto = "ip6"
		}
	}

	addr, err := ma.NewMultiaddr("/" + proto + "/" + host + "/tcp/" + strconv.Itoa(port) + "/p2p/" + peerID)
	if err != nil {
		return "", fmt.Errorf("invalid boot node address: %w", err)
	}
	return addr.String(), nil
}
