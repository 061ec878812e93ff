package lexer

import (
	"strings"
	"testing"
)

// 基准测试样本：典型的应用类源代码
var benchSource = `
import PKG:Util:*;

class Invoice extends PKG:Base:Document
   method Invoice(&id As string);
   method Total() Returns number;
   property string Customer get;
private
   instance array of number &lines;
end-class;

method Invoice
   /+ &id as String +/
   %Super = create PKG:Base:Document(&id);
   &lines = CreateArrayRept(0, 0);
end-method;

method Total
   /+ Returns Number +/
   Local number &sum = 0;
   Local integer &i;
   For &i = 1 To &lines.Len
      &sum = &sum + &lines [&i];
   End-For;
   Return &sum;
end-method;
`

func BenchmarkScanTokens(b *testing.B) {
	source := strings.Repeat(benchSource, 20)
	b.SetBytes(int64(len(source)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		New(source, "bench.pc").ScanTokens()
	}
}
