package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,name,description,price,category,image_url,available,preparation_time
nasi,Nasi Goreng,Fried rice,10.00,food,,true,12
teh,Es Teh,,5.5,drink,https://cdn.example.com/teh.png,,
sate,Sate Ayam,,25,food,,false,20
`

func TestReadMenu(t *testing.T) {
	res, err := ReadMenu(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Zero(t, res.Skipped)
	require.Len(t, res.Items, 3)

	nasi := res.Items[0]
	assert.Equal(t, "nasi", nasi.ID)
	assert.Equal(t, "Fried rice", nasi.Description)
	assert.True(t, nasi.Price.Equal(decimal.RequireFromString("10")))
	assert.True(t, nasi.Available)
	assert.Equal(t, 12, nasi.PreparationTime)

	teh := res.Items[1]
	assert.True(t, teh.Available, "empty availability defaults to true")
	assert.Equal(t, "https://cdn.example.com/teh.png", teh.ImageURL)
	assert.Zero(t, teh.PreparationTime)

	assert.False(t, res.Items[2].Available)
}

func TestReadMenu_HeaderOrder(t *testing.T) {
	res, err := ReadMenu(strings.NewReader("Price, ID ,Name\n7.25,kopi,Kopi Tubruk\n"))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "kopi", res.Items[0].ID)
	assert.Equal(t, "Kopi Tubruk", res.Items[0].Name)
	assert.True(t, res.Items[0].Price.Equal(decimal.RequireFromString("7.25")))
}

func TestReadMenu_SkipsMalformedRows(t *testing.T) {
	input := `id,name,price,available,preparation_time
ok,Fine,1.00,true,1
short,Row
,No ID,1.00,true,1
noname,,1.00,true,1
neg,Negative,-1,true,1
text,Text Price,abc,true,1
fraction,Too Precise,1.005,true,1
flag,Bad Flag,1.00,maybe,1
prep,Bad Prep,1.00,true,-5
also,Fine Too,2.50,false,3
`
	res, err := ReadMenu(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 8, res.Skipped)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "ok", res.Items[0].ID)
	assert.Equal(t, "also", res.Items[1].ID)
}

func TestReadMenu_MissingColumn(t *testing.T) {
	_, err := ReadMenu(strings.NewReader("id,name\nx,y\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "price")
}

func TestReadMenu_Empty(t *testing.T) {
	_, err := ReadMenu(strings.NewReader(""))
	assert.Error(t, err)
}

func TestOpen_Gzip(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	gzPath := filepath.Join(dir, "menu.csv.gz")
	require.NoError(t, os.WriteFile(gzPath, buf.Bytes(), 0o600))
	plainPath := filepath.Join(dir, "menu.csv")
	require.NoError(t, os.WriteFile(plainPath, []byte(sampleCSV), 0o600))

	for _, path := range []string{gzPath, plainPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			f, err := Open(path)
			require.NoError(t, err)
			defer f.Close()

			res, err := ReadMenu(f)
			require.NoError(t, err)
			assert.Len(t, res.Items, 3)
		})
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
