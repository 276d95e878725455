package dnswire

import "fmt"

// Question is one entry of the question section.
type Question struct {
	Name  Name
	Type  uint16
	Class uint16
}

func (q Question) encode(w *Writer) error {
	if err := q.Name.encode(w); err != nil {
		return err
	}
	w.writeU16(q.Type)
	w.writeU16(q.Class)
	return nil
}

func (r *Reader) readQuestion() (q Question, err error) {
	if q.Name, err = r.readName("question.qname"); err != nil {
		return
	}
	if q.Type, err = r.readU16("question.qtype"); err != nil {
		return
	}
	q.Class, err = r.readU16("question.qclass")
	return
}

func (q Question) String() string {
	return fmt.Sprintf(";%s\t%s\t%s", q.Name, ClassToString(q.Class), TypeToString(q.Type))
}
