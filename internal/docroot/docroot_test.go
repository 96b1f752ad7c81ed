package docroot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	assert.Equal(t, "/srv/www/index.html", Resolve("/srv/www", "index.html"))
	assert.Equal(t, "/srv/www/img/a.gif", Resolve("/srv/www/", "img/a.gif"))
	assert.Equal(t, "/srv/www/a.txt", Resolve("/srv/www", "./x/../a.txt"))
	assert.Equal(t, "/etc/passwd.txt", Resolve("/srv/www", "../../etc/passwd.txt"))
	assert.Equal(t, "www/a.html", Resolve("www", "a.html"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("/srv/www", "/srv/www/index.html"))
	assert.True(t, Contains("/srv/www/", "/srv/www"))
	assert.True(t, Contains("/srv/www", "/srv/www/..data/a.txt"))
	assert.True(t, Contains("www", "www/a/b.gif"))

	assert.False(t, Contains("/srv/www", "/srv/wwwx/a.html"))
	assert.False(t, Contains("/srv/www", "/srv/a.html"))
	assert.False(t, Contains("/srv/www", Resolve("/srv/www", "../../etc/passwd.txt")))
	assert.False(t, Contains("www", "/etc/a.txt"))
}
