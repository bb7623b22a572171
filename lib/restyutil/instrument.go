// Package restyutil dumps the raw HTTP exchanges of a resty client, which is
// how a changed page layout is usually diagnosed.
package restyutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

type Output interface {
	Write(id string, contents string)
}

// DumpMessages writes every response the client receives to output, named
// "<unix time>-<sequence>-<status>.txt".
func DumpMessages(client *resty.Client, output Output) {
	if output == nil {
		return
	}
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := fmt.Sprintf(
			"%d-%d-%d.txt",
			time.Now().Unix(),
			atomic.AddUint64(&idcounter, 1),
			res.StatusCode(),
		)
		output.Write(id, FormatMessage(res))
		return nil
	})
}
