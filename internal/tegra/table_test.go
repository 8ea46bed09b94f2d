package tegra

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	id          uint32
	name        string
	name2       string
	startSector uint32
	endSector   uint32
	fsType      uint32
}

func putRecord(buf []byte, idx int, r testRecord) {
	le := binary.LittleEndian
	off := headerLen + idx*recordStride
	le.PutUint32(buf[off:], r.id)
	copy(buf[off+4:off+8], r.name)
	copy(buf[off+20:off+24], r.name2)
	le.PutUint32(buf[off+24:], r.fsType)
	le.PutUint32(buf[off+56:], r.startSector)
	le.PutUint32(buf[off+64:], r.endSector)
}

func buildTable(numParts uint32, recs ...testRecord) []byte {
	buf := make([]byte, TableSize)
	le := binary.LittleEndian
	le.PutUint32(buf[8:], Version)
	le.PutUint32(buf[12:], 1992)
	le.PutUint32(buf[64:], numParts)
	for i, r := range recs {
		putRecord(buf, i, r)
	}
	return buf
}

func bctRecord() testRecord {
	return testRecord{id: BCTID, name: "BCT", name2: "BCT", startSector: 0, endSector: 3}
}

func TestParse(t *testing.T) {
	buf := buildTable(3,
		bctRecord(),
		testRecord{id: 3, name: "PT", name2: "PT", startSector: 4, endSector: 7},
		testRecord{id: 4, name: "EBT", name2: "EBT", startSector: 8, endSector: 15},
	)

	table, err := Parse(buf)
	require.NoError(t, err)

	assert.Equal(t, uint32(Version), table.Version)
	assert.Equal(t, uint32(1992), table.TableSize)
	assert.Equal(t, uint32(3), table.NumParts)

	recs := table.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "BCT", recs[0].DisplayName())
	assert.Equal(t, "PT", recs[1].DisplayName())
	assert.Equal(t, "EBT", recs[2].DisplayName())
	assert.Equal(t, uint32(8), recs[2].StartSector)

	_, _, found := table.GPT()
	assert.False(t, found)
}

func TestParseGPTMarker(t *testing.T) {
	buf := buildTable(2,
		bctRecord(),
		testRecord{id: 3, name: "GPT", name2: "GPT"},
	)

	table, err := Parse(buf)
	require.NoError(t, err)

	rec, idx, found := table.GPT()
	require.True(t, found)
	assert.Equal(t, 1, idx)
	assert.Equal(t, uint32(3), rec.ID)
	assert.Equal(t, "GPT", rec.DisplayName())
	// The marker record is also exposed as a regular record.
	assert.Len(t, table.Records(), 2)
}

func TestParseWrongSize(t *testing.T) {
	_, err := Parse(make([]byte, TableSize-1))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseVersionMismatch(t *testing.T) {
	buf := buildTable(1, bctRecord())
	binary.LittleEndian.PutUint32(buf[8:], 0x00010000)

	table, err := Parse(buf)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Nil(t, table)
}

func TestParseBCTValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testRecord)
	}{
		{"wrong id", func(r *testRecord) { r.id = 5 }},
		{"wrong name", func(r *testRecord) { r.name = "XCT" }},
		{"name fields disagree", func(r *testRecord) { r.name2 = "BTC" }},
		{"nonzero start sector", func(r *testRecord) { r.startSector = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bct := bctRecord()
			tt.mutate(&bct)
			table, err := Parse(buildTable(1, bct))

			assert.ErrorIs(t, err, ErrValidation)
			// The invalid record is still exposed for display.
			require.NotNil(t, table)
			assert.Len(t, table.Records(), 1)
		})
	}
}

func TestParseSentinelStopsScan(t *testing.T) {
	buf := buildTable(4,
		bctRecord(),
		testRecord{id: 3, name: "APP", name2: "APP"},
		testRecord{id: 200, name: "BAD", name2: "BAD"},
		testRecord{id: 4, name: "UDA", name2: "UDA"},
	)

	table, err := Parse(buf)
	require.NoError(t, err)
	// Scan stops at the sentinel id; the record after it is never visited.
	assert.Len(t, table.Records(), 2)
}

func TestParseDeclaredCountLimitsScan(t *testing.T) {
	buf := buildTable(2,
		bctRecord(),
		testRecord{id: 3, name: "APP", name2: "APP"},
		testRecord{id: 4, name: "UDA", name2: "UDA"},
	)

	table, err := Parse(buf)
	require.NoError(t, err)
	assert.Len(t, table.Records(), 2)
}

func TestParseRecordBound(t *testing.T) {
	recs := []testRecord{bctRecord()}
	for i := 1; i < MaxRecords+4; i++ {
		recs = append(recs, testRecord{id: uint32(2 + i), name: "APP", name2: "APP"})
	}
	// Declared count beyond the hard bound; the bound wins.
	buf := buildTable(uint32(MaxRecords+4), recs[:MaxRecords]...)

	table, err := Parse(buf)
	require.NoError(t, err)
	assert.Len(t, table.Records(), MaxRecords)
}
