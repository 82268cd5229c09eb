package monitor

import (
	"context"
	"time"

	"github.com/aswapdex/aswap/common"
	"github.com/aswapdex/aswap/reader"
)

// TxMonitor polls the chain until a tx is mined, reverted or deemed
// lost (not seen by any node for a while).
type TxMonitor struct {
	reader *reader.EthReader
}

func NewGenericTxMonitor(r *reader.EthReader) *TxMonitor {
	return &TxMonitor{r}
}

func (tm TxMonitor) periodicCheck(ctx context.Context, tx string, info chan common.TxInfo) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	startTime := time.Now()
	isOnNode := false
	for {
		var t time.Time
		select {
		case <-ctx.Done():
			info <- common.TxInfo{Status: common.TxStatusLost}
			return
		case t = <-ticker.C:
		}
		txinfo, _ := tm.reader.TxInfoFromHash(tx)
		switch txinfo.Status {
		case common.TxStatusError:
			continue
		case common.TxStatusNotFound:
			if t.Sub(startTime) > 3*time.Minute && !isOnNode {
				info <- common.TxInfo{Status: common.TxStatusLost}
				return
			}
			continue
		case common.TxStatusPending:
			isOnNode = true
			continue
		case common.TxStatusReverted, common.TxStatusDone:
			info <- txinfo
			return
		}
	}
}

func (tm TxMonitor) MakeWaitChannel(ctx context.Context, tx string) <-chan common.TxInfo {
	result := make(chan common.TxInfo, 1)
	go tm.periodicCheck(ctx, tx, result)
	return result
}

func (tm TxMonitor) BlockingWait(ctx context.Context, tx string) common.TxInfo {
	wChannel := tm.MakeWaitChannel(ctx, tx)
	return <-wChannel
}
