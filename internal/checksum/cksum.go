package checksum

import "hash"

// posixPoly is the CRC-32 generator polynomial used by POSIX cksum, in
// non-reflected (MSB first) form.
const posixPoly = 0x04C11DB7

var cksumTable = makeCksumTable()

func makeCksumTable() *[256]uint32 {
	var t [256]uint32
	for i := range t {
		c := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if c&0x80000000 != 0 {
				c = c<<1 ^ posixPoly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return &t
}

// Cksum computes the checksum printed by POSIX cksum(1): a CRC-32 over the
// data followed by the data length, least significant byte first, using only
// as many bytes as the length needs, with the result complemented.
type Cksum struct {
	crc uint32
	n   uint64
}

var _ hash.Hash32 = (*Cksum)(nil)

// NewCksum returns a zeroed POSIX cksum hash.
func NewCksum() *Cksum { return &Cksum{} }

func (c *Cksum) Write(p []byte) (int, error) {
	crc := c.crc
	for _, b := range p {
		crc = crc<<8 ^ cksumTable[byte(crc>>24)^b]
	}
	c.crc = crc
	c.n += uint64(len(p))
	return len(p), nil
}

// Sum32 returns the cksum value for everything written so far. It does not
// change the running state.
func (c *Cksum) Sum32() uint32 {
	crc := c.crc
	for n := c.n; n != 0; n >>= 8 {
		crc = crc<<8 ^ cksumTable[byte(crc>>24)^byte(n)]
	}
	return ^crc
}

func (c *Cksum) Sum(b []byte) []byte {
	s := c.Sum32()
	return append(b, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

func (c *Cksum) Reset() { c.crc, c.n = 0, 0 }

func (c *Cksum) Size() int { return 4 }

func (c *Cksum) BlockSize() int { return 1 }

// Len reports how many bytes have been written.
func (c *Cksum) Len() uint64 { return c.n }
