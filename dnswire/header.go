package dnswire

import (
	"fmt"
	"strings"
)

// Flags holds the unpacked 16-bit flag field of the DNS header.
type Flags struct {
	QR     bool
	OpCode uint8
	AA     bool
	TC     bool
	RD     bool
	RA     bool
	Z      bool
	AD     bool
	CD     bool
	RCode  uint8
}

const (
	maskQR = 1 << 15
	maskAA = 1 << 10
	maskTC = 1 << 9
	maskRD = 1 << 8
	maskRA = 1 << 7
	maskZ  = 1 << 6
	maskAD = 1 << 5
	maskCD = 1 << 4
)

func (f Flags) pack() (v uint16) {
	if f.QR {
		v |= maskQR
	}
	v |= uint16(f.OpCode&0x0F) << 11
	if f.AA {
		v |= maskAA
	}
	if f.TC {
		v |= maskTC
	}
	if f.RD {
		v |= maskRD
	}
	if f.RA {
		v |= maskRA
	}
	if f.Z {
		v |= maskZ
	}
	if f.AD {
		v |= maskAD
	}
	if f.CD {
		v |= maskCD
	}
	v |= uint16(f.RCode & 0x0F)
	return
}

func unpackFlags(v uint16) Flags {
	return Flags{
		QR:     v&maskQR != 0,
		OpCode: uint8(v >> 11 & 0x0F),
		AA:     v&maskAA != 0,
		TC:     v&maskTC != 0,
		RD:     v&maskRD != 0,
		RA:     v&maskRA != 0,
		Z:      v&maskZ != 0,
		AD:     v&maskAD != 0,
		CD:     v&maskCD != 0,
		RCode:  uint8(v & 0x0F),
	}
}

// String lists the set flags the way dig does, e.g. "qr rd ra".
func (f Flags) String() string {
	var set []string
	for _, fl := range []struct {
		name string
		on   bool
	}{
		{"qr", f.QR}, {"aa", f.AA}, {"tc", f.TC}, {"rd", f.RD},
		{"ra", f.RA}, {"ad", f.AD}, {"cd", f.CD},
	} {
		if fl.on {
			set = append(set, fl.name)
		}
	}
	return strings.Join(set, " ")
}

// Header is the fixed 12-octet DNS message header.
type Header struct {
	ID      uint16
	Flags   Flags
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

func (h Header) encode(w *Writer) {
	w.writeU16(h.ID)
	w.writeU16(h.Flags.pack())
	w.writeU16(h.QDCount)
	w.writeU16(h.ANCount)
	w.writeU16(h.NSCount)
	w.writeU16(h.ARCount)
}

func (r *Reader) readHeader() (h Header, err error) {
	var flags uint16
	if h.ID, err = r.readU16("header.id"); err != nil {
		return
	}
	if flags, err = r.readU16("header.flags"); err != nil {
		return
	}
	h.Flags = unpackFlags(flags)
	if h.QDCount, err = r.readU16("header.qdcount"); err != nil {
		return
	}
	if h.ANCount, err = r.readU16("header.ancount"); err != nil {
		return
	}
	if h.NSCount, err = r.readU16("header.nscount"); err != nil {
		return
	}
	h.ARCount, err = r.readU16("header.arcount")
	return
}

func (h Header) String() string {
	return fmt.Sprintf("opcode: %s, status: %s, id: %d\n;; flags: %s; QUERY: %d, ANSWER: %d, AUTHORITY: %d, ADDITIONAL: %d",
		OpCodeToString(h.Flags.OpCode), RcodeToString(uint16(h.Flags.RCode)), h.ID,
		h.Flags, h.QDCount, h.ANCount, h.NSCount, h.ARCount)
}
