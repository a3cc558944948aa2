package memfile

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
)

func TestHeapAllocator(t *testing.T) {
	requireT := require.New(t)

	a := NewHeapAllocator(100)
	b1, err := a.Alloc(60)
	requireT.NoError(err)
	requireT.Len(b1, 60)
	requireT.Equal(int64(60), a.Used())

	_, err = a.Alloc(41)
	requireT.True(errors.Is(err, clist.ErrOutOfMemory))
	requireT.Equal(int64(60), a.Used())

	b2, err := a.Alloc(40)
	requireT.NoError(err)

	a.SetFailing(true)
	a.Free(b1)
	_, err = a.Alloc(1)
	requireT.True(errors.Is(err, clist.ErrOutOfMemory))

	a.SetFailing(false)
	_, err = a.Alloc(60)
	requireT.NoError(err)

	a.Free(b2)
	requireT.Equal(int64(60), a.Used())
}

func TestStorageReusesIndexes(t *testing.T) {
	requireT := require.New(t)

	st := &storage{}
	i0 := st.add(make([]byte, 1), blocks.RawEnd)
	i1 := st.add(make([]byte, 1), 0)
	requireT.Equal(blocks.Index(0), i0)
	requireT.Equal(blocks.Index(1), i1)
	requireT.Equal(2, st.live)

	requireT.Len(st.remove(i0), 1)
	requireT.Equal(1, st.live)
	requireT.Equal(i0, st.add(make([]byte, 1), 0))
	requireT.Equal(blocks.NoIndex, st.get(i0).next)

	requireT.Len(st.drain(), 2)
	requireT.Zero(st.live)
	requireT.Equal(blocks.Index(0), st.add(make([]byte, 1), 0))
}

func TestReserveTargets(t *testing.T) {
	requireT := require.New(t)

	s := newFile(t, newBackend(t, Config{BlockSize: smallBlock}))
	requireT.Empty(s.res.logical)
	requireT.Len(s.res.physical, 1)

	requireT.NoError(s.Reserve(3*smallBlock + 1))
	requireT.Len(s.res.logical, 4)
	requireT.Len(s.res.physical, 6)

	requireT.NoError(s.Reserve(smallBlock))
	requireT.Len(s.res.logical, 1)
	requireT.Len(s.res.physical, 3)
	requireT.Zero(s.TotalSpace())
}
