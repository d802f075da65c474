package wire

import (
	"bytes"
	"testing"
)

func TestRoundTripAllTypes(t *testing.T) {
	msgs := []Message{
		&HandShake{ProtoVersion: 2, Name: "A"},
		&HandShake{ProtoVersion: 2, Name: "A", Challenge: []byte{1, 2, 3}},
		&BindRead{Handle: 7, IDs: []Identifier{{Type: HashTreeTiger, ID: []byte("aa")}}, Timeout: 500, UUID: 1234567890},
		&BindRead{Handle: 7, IDs: nil, Timeout: 500, UUID: 42},
		&AssetStatus{Handle: 7, Status: StatusSuccess, HasSize: true, Size: 1024, HasIDs: true, IDs: []Identifier{{Type: HashSHA1, ID: []byte("bb")}}},
		&AssetStatus{Handle: 7, Status: StatusNotFound},
		&ReadRequest{ReqID: 1, Handle: 7, Offset: 0, Size: 256, Timeout: 1000},
		&ReadResponse{ReqID: 1, Status: StatusSuccess, HasOffset: true, Offset: 0, Content: []byte("hello")},
		&ReadResponse{ReqID: 1, Status: StatusTimeout},
		&BindWrite{Handle: 3, Size: 99},
		&BindWrite{Handle: 3, Size: 99, LinkPath: "/tmp/x"},
		&DataSegment{Handle: 3, Offset: 10, Content: []byte("chunk")},
		&HandShakeConfirmed{},
		&Ping{},
	}

	for _, m := range msgs {
		buf := Encode(nil, m)
		var d Decoder
		recs, err := d.Feed(buf)
		if err != nil {
			t.Fatalf("decode %T: %v", m, err)
		}
		if len(recs) != 1 {
			t.Fatalf("decode %T: got %d records, want 1", m, len(recs))
		}
		if recs[0].Type != m.Type() {
			t.Fatalf("decode %T: type mismatch", m)
		}
		reenc := Encode(nil, recs[0].Msg)
		if !bytes.Equal(reenc, buf) {
			t.Fatalf("decode %T: re-encoding mismatch\n got  %x\n want %x", m, reenc, buf)
		}
	}
}

func TestLengthFramingRoundTrip(t *testing.T) {
	m1 := &Ping{}
	m2 := &BindRead{Handle: 1, Timeout: 500, UUID: 9}

	buf := Encode(nil, m1)
	buf = Encode(buf, m2)

	var d Decoder
	recs, err := d.Feed(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Type != TypePing || recs[1].Type != TypeBindRead {
		t.Fatalf("wrong order: %v %v", recs[0].Type, recs[1].Type)
	}
}

func TestDecodeNeedsMoreBytes(t *testing.T) {
	m := &BindRead{Handle: 1, Timeout: 500, UUID: 9}
	buf := Encode(nil, m)

	var d Decoder
	recs, err := d.Feed(buf[:len(buf)-1])
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records from a partial frame, got %d", len(recs))
	}

	recs, err = d.Feed(buf[len(buf)-1:])
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected the completed record, got %d", len(recs))
	}
}

func TestDecodeByteAtATime(t *testing.T) {
	m := &AssetStatus{Handle: 5, Status: StatusSuccess, HasSize: true, Size: 42}
	buf := Encode(nil, m)

	var d Decoder
	var got []Record
	for _, b := range buf {
		recs, err := d.Feed([]byte{b})
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, recs...)
	}
	if len(got) != 1 || got[0].Type != TypeAssetStatus {
		t.Fatalf("got %+v", got)
	}
}

func TestOversizedRecordIsFatal(t *testing.T) {
	var d Decoder
	var lenPrefix []byte
	lenPrefix = putUvarint(lenPrefix, MaxRecordLen+1)
	if _, err := d.Feed(lenPrefix); err != ErrRecordTooLarge {
		t.Fatalf("got %v, want ErrRecordTooLarge", err)
	}
}

func TestUnknownTagIsFatal(t *testing.T) {
	var d Decoder
	buf := append([]byte{}, byte(4)) // tag 4 is unused in the table
	var lenPrefix []byte
	lenPrefix = putUvarint(lenPrefix, uint64(len(buf)))
	if _, err := d.Feed(append(lenPrefix, buf...)); err == nil {
		t.Fatal("expected an error for unknown tag")
	}
}

func TestUnknownIdentifierTypeRoundTrips(t *testing.T) {
	m := &BindRead{Handle: 1, IDs: []Identifier{{Type: 99, ID: []byte("x")}}, Timeout: 1, UUID: 1}
	buf := Encode(nil, m)
	var d Decoder
	recs, err := d.Feed(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := recs[0].Msg.(*BindRead)
	if got.IDs[0].Type != 99 {
		t.Fatalf("unknown identifier type was not preserved: %+v", got.IDs[0])
	}
}
