package a

func malloc(size int) *int32

func ok(p *int32) {
	*p = 7
}

func heapy() { // want `heapy performs an unclassifiable memory write and is not summarisable`
	m := malloc(4)
	*m = 0
}
