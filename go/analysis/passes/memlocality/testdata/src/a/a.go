package a

func indirect(f func()) { // want `indirect -> Unknown locality \(INACCURACY, Indirect function call\)`
	f()
}

func main() {
	indirect(nil)
}
