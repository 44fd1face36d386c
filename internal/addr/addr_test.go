package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid addresses", func(t *testing.T) {
		cases := map[string]Address{
			"vpc.main":               {Type: "vpc", Name: "main"},
			"subnet.egress_a":        {Type: "subnet", Name: "egress_a"},
			"transit_gateway.hub":    {Type: "transit_gateway", Name: "hub"},
			"tgw_attachment.egress":  {Type: "tgw_attachment", Name: "egress"},
			"tgw_route_table.main-1": {Type: "tgw_route_table", Name: "main-1"},
		}
		for raw, want := range cases {
			got, err := Parse(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, want, got)
			assert.Equal(t, raw, got.String())
		}
	})

	t.Run("error cases", func(t *testing.T) {
		for _, raw := range []string{"", "vpc", "vpc.", ".main", "1vpc.main", "vpc.ma in"} {
			_, err := Parse(raw)
			assert.Error(t, err, "expected error for %q", raw)
		}
	})
}

func TestString(t *testing.T) {
	a := New("subnet", "egress_a")
	assert.Equal(t, "subnet.egress_a", a.String())
	assert.False(t, a.IsZero())
	assert.True(t, Address{}.IsZero())
}
