package ticket

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle_TicketsSkipRedistributables(t *testing.T) {
	b := NewBundle(480, "Spacewar", "windows,linux", "64")
	content := &Ticket{AppID: 480, DepotID: 481, ManifestID: 3183503801510301321, DepotKey: testKey(), Manifest: []byte("payload\n")}
	b.AddTicket(content, "Spacewar Content", DepotConfig{OSArch: "0", OSList: "Universal"}, 1234, 5678)
	b.AddRedistributable(228988, "VC 2010 Redist", DepotConfig{OSArch: "0", OSList: "windows"})

	assert.Equal(t, []uint32{481, 228988}, b.DepotIDs())

	var buf bytes.Buffer
	require.NoError(t, EncodeBundle(&buf, b))
	assert.Contains(t, buf.String(), `"isRedistributable": true`)

	decoded, err := DecodeBundle(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(b, decoded); diff != "" {
		t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
	}

	tickets, err := decoded.Tickets()
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, content, tickets[0])

	redist := decoded.Depots["228988"]
	assert.Nil(t, redist.Manifests)
	assert.Empty(t, redist.Key)
}

func TestBundle_WriteReadFile(t *testing.T) {
	dir := t.TempDir()
	b := NewBundle(10, "Counter-Strike", "windows", "")
	b.AddTicket(&Ticket{AppID: 10, DepotID: 11, ManifestID: 1, DepotKey: testKey()}, "", DepotConfig{OSArch: "0", OSList: "Universal"}, 0, 0)

	path, err := WriteBundleFile(dir, b)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "10.bundle"))

	got, err := ReadBundleFile(path)
	require.NoError(t, err)
	tickets, err := got.Tickets()
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Nil(t, tickets[0].Manifest)
}

func TestDecodeBundle_Malformed(t *testing.T) {
	_, err := DecodeBundle(strings.NewReader("{not json"))
	require.ErrorIs(t, err, common.ErrMalformedTicket)

	b, err := DecodeBundle(strings.NewReader(`{"appID": 5, "depots": {"6": {"key": "zz", "config": {}, "manifests": {"public": {"gid": 1}}}}}`))
	require.NoError(t, err)
	_, err = b.Tickets()
	require.ErrorIs(t, err, common.ErrMalformedTicket)
}
