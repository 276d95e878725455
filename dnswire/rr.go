package dnswire

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// RData is the decoded, type-specific body of a resource record.
type RData interface {
	encode(w *Writer) error
	String() string
}

// RR is a resource record. For TYPE=OPT the Class field carries the
// requestor's UDP payload size and the TTL field the packed
// extended-RCODE/version/DO/Z word; see [OPT].
type RR struct {
	Name  Name
	Type  uint16
	Class uint16
	TTL   uint32
	Data  RData
}

func (rr *RR) encode(w *Writer) error {
	if err := rr.Name.encode(w); err != nil {
		return err
	}
	w.writeU16(rr.Type)
	w.writeU16(rr.Class)
	w.writeU32(rr.TTL)
	lenOff := w.Len()
	w.writeU16(0)
	if rr.Data != nil {
		if err := rr.Data.encode(w); err != nil {
			return err
		}
	}
	rdlen := w.Len() - lenOff - 2
	if rdlen > 0xFFFF {
		return fmt.Errorf("RDATA too long: %d octets", rdlen)
	}
	w.patchU16(lenOff, uint16(rdlen))
	return nil
}

func (r *Reader) readRR() (rr RR, err error) {
	if rr.Name, err = r.readName("rr.name"); err != nil {
		return
	}
	if rr.Type, err = r.readU16("rr.type"); err != nil {
		return
	}
	if rr.Class, err = r.readU16("rr.class"); err != nil {
		return
	}
	if rr.TTL, err = r.readU32("rr.ttl"); err != nil {
		return
	}
	var rdlen uint16
	if rdlen, err = r.readU16("rr.rdlength"); err != nil {
		return
	}
	if int(rdlen) > r.Remaining() {
		err = r.fail("rr.rdata", ErrShortMessage)
		return
	}
	start := r.off
	field := TypeToString(rr.Type)
	if rr.Data, err = decodeRData(r, rr.Type, int(rdlen)); err != nil {
		return
	}
	if r.off != start+int(rdlen) {
		err = &DecodeError{Offset: r.off, Field: field, Err: ErrRDataLength}
	}
	return
}

// String renders the record in zone-file presentation order.
func (rr *RR) String() string {
	data := ""
	if rr.Data != nil {
		data = rr.Data.String()
	}
	return fmt.Sprintf("%s\t%d\t%s\t%s\t%s",
		rr.Name, rr.TTL, ClassToString(rr.Class), TypeToString(rr.Type), data)
}

// Unknown carries the RDATA of an unrecognized TYPE as opaque bytes
// per RFC 3597.
type Unknown struct {
	Data []byte
}

func (u *Unknown) encode(w *Writer) error {
	w.writeBytes(u.Data)
	return nil
}

// String renders the RFC 3597 \# form.
func (u *Unknown) String() string {
	if len(u.Data) == 0 {
		return `\# 0`
	}
	return fmt.Sprintf(`\# %d %s`, len(u.Data), strings.ToUpper(hex.EncodeToString(u.Data)))
}

func decodeUnknown(r *Reader, rdlen int) (RData, error) {
	data, err := r.readBytes(rdlen, "rdata")
	if err != nil {
		return nil, err
	}
	return &Unknown{Data: data}, nil
}

// decodeRData dispatches on the record type. Unassigned types fall back to
// the opaque RFC 3597 representation.
func decodeRData(r *Reader, typ uint16, rdlen int) (RData, error) {
	switch typ {
	case TypeA:
		return decodeA(r, rdlen)
	case TypeAAAA:
		return decodeAAAA(r, rdlen)
	case TypeNS, TypeCNAME, TypePTR, TypeDNAME, TypeMB, TypeMG, TypeMR:
		return decodeSingleName(r, typ)
	case TypeSOA:
		return decodeSOA(r)
	case TypeMX:
		return decodeMX(r)
	case TypeTXT:
		return decodeTXT(r, rdlen)
	case TypeWALLET:
		return decodeWALLET(r, rdlen)
	case TypeHINFO:
		return decodeHINFO(r)
	case TypeMINFO:
		return decodeMINFO(r)
	case TypeRP:
		return decodeRP(r)
	case TypeAFSDB:
		return decodeAFSDB(r)
	case TypeKX:
		return decodeKX(r)
	case TypeSRV:
		return decodeSRV(r)
	case TypeNAPTR:
		return decodeNAPTR(r)
	case TypeCAA:
		return decodeCAA(r, rdlen)
	case TypeURI:
		return decodeURI(r, rdlen)
	case TypeSSHFP:
		return decodeSSHFP(r, rdlen)
	case TypeTLSA:
		return decodeTLSA(r, rdlen)
	case TypeSMIMEA:
		return decodeSMIMEA(r, rdlen)
	case TypeOPENPGPKEY:
		return decodeOPENPGPKEY(r, rdlen)
	case TypeDHCID:
		return decodeDHCID(r, rdlen)
	case TypeEUI48:
		return decodeEUI48(r, rdlen)
	case TypeEUI64:
		return decodeEUI64(r, rdlen)
	case TypeDNSKEY:
		return decodeDNSKEY(r, rdlen)
	case TypeCDNSKEY:
		return decodeCDNSKEY(r, rdlen)
	case TypeRRSIG:
		return decodeRRSIG(r, rdlen)
	case TypeDS:
		return decodeDS(r, rdlen)
	case TypeCDS:
		return decodeCDS(r, rdlen)
	case TypeNSEC:
		return decodeNSEC(r, rdlen)
	case TypeNSEC3:
		return decodeNSEC3(r, rdlen)
	case TypeNSEC3PARAM:
		return decodeNSEC3PARAM(r)
	case TypeCSYNC:
		return decodeCSYNC(r, rdlen)
	case TypeZONEMD:
		return decodeZONEMD(r, rdlen)
	case TypeSVCB:
		return decodeSVCB(r, rdlen)
	case TypeHTTPS:
		return decodeHTTPS(r, rdlen)
	case TypeLOC:
		return decodeLOC(r)
	case TypeAPL:
		return decodeAPL(r, rdlen)
	case TypeIPSECKEY:
		return decodeIPSECKEY(r, rdlen)
	case TypeHIP:
		return decodeHIP(r, rdlen)
	case TypeCERT:
		return decodeCERT(r, rdlen)
	case TypeOPT:
		return decodeOPT(r, rdlen)
	default:
		return decodeUnknown(r, rdlen)
	}
}
