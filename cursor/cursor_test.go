package cursor_test

import (
	"bytes"
	"testing"

	"github.com/cyril851122/nfsreassembly/cursor"
)

func TestReadAdvancesAndBounds(t *testing.T) {
	c := cursor.New([]byte{1, 2, 3, 4, 5})
	got, err := c.Read(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("Read(2) = %v, want [1 2]", got)
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
	if _, err := c.Read(10); err != cursor.ErrOutOfRange {
		t.Errorf("Read(10) err = %v, want ErrOutOfRange", err)
	}
}

func TestInsertPrependsBeforeMainBuffer(t *testing.T) {
	c := cursor.New([]byte{5, 6, 7})
	c.Insert([]byte{3, 4})
	c.Insert([]byte{1, 2})
	got := c.GetBytes()
	want := []byte{1, 2, 3, 4, 5, 6, 7}
	if !bytes.Equal(got, want) {
		t.Errorf("GetBytes() = %v, want %v", got, want)
	}
	read, err := c.Read(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(read, []byte{1, 2, 3, 4}) {
		t.Errorf("Read(4) = %v, want [1 2 3 4]", read)
	}
}

func TestSaveRestoreSpansStagedAndMain(t *testing.T) {
	c := cursor.New([]byte{10, 11, 12})
	c.Insert([]byte{1, 2})
	if _, err := c.Read(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	restore := c.Save()
	if _, err := c.Read(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Restore(restore)
	if c.Size() != 2 {
		t.Errorf("Size() after restore = %d, want 2", c.Size())
	}
	rest, err := c.Read(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(rest, []byte{11, 12}) {
		t.Errorf("Read(2) after restore = %v, want [11 12]", rest)
	}
}

func TestSeekDiscardsStaged(t *testing.T) {
	c := cursor.New([]byte{0, 1, 2, 3})
	c.Insert([]byte{9, 9})
	if err := c.Seek(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := c.GetBytes()
	if !bytes.Equal(got, []byte{2, 3}) {
		t.Errorf("GetBytes() after seek = %v, want [2 3]", got)
	}
}
