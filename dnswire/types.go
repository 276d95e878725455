package dnswire

import (
	"fmt"
	"strconv"
	"strings"
)

// RR type codes handled by this package.
const (
	TypeNone       uint16 = 0
	TypeA          uint16 = 1
	TypeNS         uint16 = 2
	TypeCNAME      uint16 = 5
	TypeSOA        uint16 = 6
	TypeMB         uint16 = 7
	TypeMG         uint16 = 8
	TypeMR         uint16 = 9
	TypeNULL       uint16 = 10
	TypePTR        uint16 = 12
	TypeHINFO      uint16 = 13
	TypeMINFO      uint16 = 14
	TypeMX         uint16 = 15
	TypeTXT        uint16 = 16
	TypeRP         uint16 = 17
	TypeAFSDB      uint16 = 18
	TypeSIG        uint16 = 24
	TypeKEY        uint16 = 25
	TypeAAAA       uint16 = 28
	TypeLOC        uint16 = 29
	TypeSRV        uint16 = 33
	TypeNAPTR      uint16 = 35
	TypeKX         uint16 = 36
	TypeCERT       uint16 = 37
	TypeDNAME      uint16 = 39
	TypeOPT        uint16 = 41
	TypeAPL        uint16 = 42
	TypeDS         uint16 = 43
	TypeSSHFP      uint16 = 44
	TypeIPSECKEY   uint16 = 45
	TypeRRSIG      uint16 = 46
	TypeNSEC       uint16 = 47
	TypeDNSKEY     uint16 = 48
	TypeDHCID      uint16 = 49
	TypeNSEC3      uint16 = 50
	TypeNSEC3PARAM uint16 = 51
	TypeTLSA       uint16 = 52
	TypeSMIMEA     uint16 = 53
	TypeHIP        uint16 = 55
	TypeCDS        uint16 = 59
	TypeCDNSKEY    uint16 = 60
	TypeOPENPGPKEY uint16 = 61
	TypeCSYNC      uint16 = 62
	TypeZONEMD     uint16 = 63
	TypeSVCB       uint16 = 64
	TypeHTTPS      uint16 = 65
	TypeEUI48      uint16 = 108
	TypeEUI64      uint16 = 109
	TypeURI        uint16 = 256
	TypeCAA        uint16 = 257
	TypeWALLET     uint16 = 262

	// QTYPE-only meta types.
	TypeIXFR uint16 = 251
	TypeAXFR uint16 = 252
	TypeANY  uint16 = 255
)

// Class codes.
const (
	ClassINET   uint16 = 1
	ClassCHAOS  uint16 = 3
	ClassHESIOD uint16 = 4
	ClassNONE   uint16 = 254
	ClassANY    uint16 = 255
)

// OpCodes.
const (
	OpCodeQuery  uint8 = 0
	OpCodeIQuery uint8 = 1
	OpCodeStatus uint8 = 2
	OpCodeNotify uint8 = 4
	OpCodeUpdate uint8 = 5
)

// Response codes (header RCODE; extended codes come from the OPT RR).
const (
	RcodeNoError  uint16 = 0
	RcodeFormErr  uint16 = 1
	RcodeServFail uint16 = 2
	RcodeNXDomain uint16 = 3
	RcodeNotImp   uint16 = 4
	RcodeRefused  uint16 = 5
	RcodeYXDomain uint16 = 6
	RcodeYXRRSet  uint16 = 7
	RcodeNXRRSet  uint16 = 8
	RcodeNotAuth  uint16 = 9
	RcodeNotZone  uint16 = 10
	RcodeBadVers  uint16 = 16
	RcodeBadKey   uint16 = 17
	RcodeBadTime  uint16 = 18
)

var typeNames = map[uint16]string{
	TypeA:          "A",
	TypeNS:         "NS",
	TypeCNAME:      "CNAME",
	TypeSOA:        "SOA",
	TypeMB:         "MB",
	TypeMG:         "MG",
	TypeMR:         "MR",
	TypeNULL:       "NULL",
	TypePTR:        "PTR",
	TypeHINFO:      "HINFO",
	TypeMINFO:      "MINFO",
	TypeMX:         "MX",
	TypeTXT:        "TXT",
	TypeRP:         "RP",
	TypeAFSDB:      "AFSDB",
	TypeSIG:        "SIG",
	TypeKEY:        "KEY",
	TypeAAAA:       "AAAA",
	TypeLOC:        "LOC",
	TypeSRV:        "SRV",
	TypeNAPTR:      "NAPTR",
	TypeKX:         "KX",
	TypeCERT:       "CERT",
	TypeDNAME:      "DNAME",
	TypeOPT:        "OPT",
	TypeAPL:        "APL",
	TypeDS:         "DS",
	TypeSSHFP:      "SSHFP",
	TypeIPSECKEY:   "IPSECKEY",
	TypeRRSIG:      "RRSIG",
	TypeNSEC:       "NSEC",
	TypeDNSKEY:     "DNSKEY",
	TypeDHCID:      "DHCID",
	TypeNSEC3:      "NSEC3",
	TypeNSEC3PARAM: "NSEC3PARAM",
	TypeTLSA:       "TLSA",
	TypeSMIMEA:     "SMIMEA",
	TypeHIP:        "HIP",
	TypeCDS:        "CDS",
	TypeCDNSKEY:    "CDNSKEY",
	TypeOPENPGPKEY: "OPENPGPKEY",
	TypeCSYNC:      "CSYNC",
	TypeZONEMD:     "ZONEMD",
	TypeSVCB:       "SVCB",
	TypeHTTPS:      "HTTPS",
	TypeEUI48:      "EUI48",
	TypeEUI64:      "EUI64",
	TypeURI:        "URI",
	TypeCAA:        "CAA",
	TypeWALLET:     "WALLET",
	TypeIXFR:       "IXFR",
	TypeAXFR:       "AXFR",
	TypeANY:        "ANY",
}

var nameTypes = func() map[string]uint16 {
	m := make(map[string]uint16, len(typeNames))
	for t, n := range typeNames {
		m[n] = t
	}
	return m
}()

var classNames = map[uint16]string{
	ClassINET:   "IN",
	ClassCHAOS:  "CH",
	ClassHESIOD: "HS",
	ClassNONE:   "NONE",
	ClassANY:    "ANY",
}

var rcodeNames = map[uint16]string{
	RcodeNoError:  "NOERROR",
	RcodeFormErr:  "FORMERR",
	RcodeServFail: "SERVFAIL",
	RcodeNXDomain: "NXDOMAIN",
	RcodeNotImp:   "NOTIMP",
	RcodeRefused:  "REFUSED",
	RcodeYXDomain: "YXDOMAIN",
	RcodeYXRRSet:  "YXRRSET",
	RcodeNXRRSet:  "NXRRSET",
	RcodeNotAuth:  "NOTAUTH",
	RcodeNotZone:  "NOTZONE",
	RcodeBadVers:  "BADVERS",
	RcodeBadKey:   "BADKEY",
	RcodeBadTime:  "BADTIME",
}

var opCodeNames = map[uint8]string{
	OpCodeQuery:  "QUERY",
	OpCodeIQuery: "IQUERY",
	OpCodeStatus: "STATUS",
	OpCodeNotify: "NOTIFY",
	OpCodeUpdate: "UPDATE",
}

// TypeToString returns the mnemonic for an RR type, or the RFC 3597
// "TYPE<n>" form for unassigned codes.
func TypeToString(t uint16) string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", t)
}

// StringToType parses an RR type mnemonic (case-insensitive) or the
// "TYPE<n>" fallback for any code in 0..65535.
func StringToType(s string) (uint16, bool) {
	upper := strings.ToUpper(s)
	if t, ok := nameTypes[upper]; ok {
		return t, true
	}
	if rest, ok := strings.CutPrefix(upper, "TYPE"); ok {
		if n, err := strconv.ParseUint(rest, 10, 16); err == nil {
			return uint16(n), true
		}
	}
	return 0, false
}

// ClassToString returns the class mnemonic or the "CLASS<n>" form.
func ClassToString(c uint16) string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CLASS%d", c)
}

// StringToClass parses a class mnemonic or the "CLASS<n>" fallback.
func StringToClass(s string) (uint16, bool) {
	upper := strings.ToUpper(s)
	for c, n := range classNames {
		if n == upper {
			return c, true
		}
	}
	if rest, ok := strings.CutPrefix(upper, "CLASS"); ok {
		if n, err := strconv.ParseUint(rest, 10, 16); err == nil {
			return uint16(n), true
		}
	}
	return 0, false
}

// RcodeToString returns the response code mnemonic.
func RcodeToString(rc uint16) string {
	if s, ok := rcodeNames[rc]; ok {
		return s
	}
	return fmt.Sprintf("RCODE%d", rc)
}

// OpCodeToString returns the opcode mnemonic.
func OpCodeToString(op uint8) string {
	if s, ok := opCodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("OPCODE%d", op)
}
