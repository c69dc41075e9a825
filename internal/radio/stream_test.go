package radio

import (
	"net/http/httptest"
	"testing"
)

func TestWriteWithMetadataInjectsBlockAtInterval(t *testing.T) {
	rec := httptest.NewRecorder()
	sinceMeta := icyMetaInterval - 5

	if err := writeWithMetadata(rec, make([]byte, 10), &sinceMeta, "Artist - Title"); err != nil {
		t.Fatalf("writeWithMetadata: %v", err)
	}

	body := rec.Body.Bytes()
	// First 5 bytes of audio, then a length-prefixed metadata block, then
	// the remaining 5 bytes of audio.
	if len(body) <= 10 {
		t.Fatalf("expected metadata block to be interleaved, got %d bytes", len(body))
	}
	if sinceMeta != 5 {
		t.Fatalf("expected byte counter reset then advanced to 5, got %d", sinceMeta)
	}
}

func TestWriteWithMetadataNoBlockBelowInterval(t *testing.T) {
	rec := httptest.NewRecorder()
	sinceMeta := 0

	if err := writeWithMetadata(rec, make([]byte, 100), &sinceMeta, "x"); err != nil {
		t.Fatalf("writeWithMetadata: %v", err)
	}

	if rec.Body.Len() != 100 {
		t.Fatalf("expected exactly the audio bytes with no metadata block, got %d", rec.Body.Len())
	}
	if sinceMeta != 100 {
		t.Fatalf("expected counter at 100, got %d", sinceMeta)
	}
}

func TestWriteMetaBlockPadsToSixteenByteBoundary(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := writeMetaBlock(rec, "Artist - Title"); err != nil {
		t.Fatalf("writeMetaBlock: %v", err)
	}

	body := rec.Body.Bytes()
	lengthByte := int(body[0])
	payload := body[1:]
	if len(payload) != lengthByte*16 {
		t.Fatalf("expected payload padded to %d bytes, got %d", lengthByte*16, len(payload))
	}
}
