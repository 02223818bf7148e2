// Command goresp-cli talks to a Redis server over RESP.
//
// Usage:
//
//	goresp-cli [global options] command [arguments...]
//	goresp-cli -p 6380 set --ex 10s session:1 alice
//	goresp-cli GET session:1
//	goresp-cli subscribe 'news.*'
//	goresp-cli bench --command incr --clients 16 --requests 100000
//	goresp-cli < commands.txt pipeline
//
// Without a command it starts an interactive prompt.
package main
