// Package all registers every bundled DNS provider adapter.
package all

import (
	_ "github.com/evanofslack/zone-update/provider/bunny"
	_ "github.com/evanofslack/zone-update/provider/cloudflare"
	_ "github.com/evanofslack/zone-update/provider/desec"
	_ "github.com/evanofslack/zone-update/provider/digitalocean"
	_ "github.com/evanofslack/zone-update/provider/dnsimple"
	_ "github.com/evanofslack/zone-update/provider/dnsmadeeasy"
	_ "github.com/evanofslack/zone-update/provider/gandi"
	_ "github.com/evanofslack/zone-update/provider/linode"
	_ "github.com/evanofslack/zone-update/provider/porkbun"
)
