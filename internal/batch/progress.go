package batch

import "io"

// progressReader reports the share of total bytes read. Percent stays below
// 100 until the upload is confirmed.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(percent int)
}

func newProgressReader(r io.Reader, total int64, report func(int)) *progressReader {
	return &progressReader{r: r, total: total, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		percent := int(p.read * 100 / p.total)
		percent = min(percent, 99)
		if percent > p.last {
			p.last = percent
			p.report(percent)
		}
	}
	return n, err
}
