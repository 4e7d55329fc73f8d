// Command financectl adalah CLI admin untuk modul keuangan: migrate,
// seed, reconcile, reset, dan cek saldo siswa tanpa lewat HTTP.
package main

func main() {
	Execute()
}
